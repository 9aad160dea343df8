package repositories_test

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/appErrors"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/models"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/repositories"
)

var repoDBCounter int64

func setupRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := atomic.AddInt64(&repoDBCounter, 1)
	dsn := fmt.Sprintf("file:repositories_test_%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Workshop{},
		&models.AuditLog{},
		&models.SequenceCounter{},
	))
	return db
}

func TestBookSeat_CapacityExhaustion(t *testing.T) {
	t.Parallel()

	db := setupRepoDB(t)
	repo := repositories.NewWorkshopRepository()

	require.NoError(t, repo.Create(db, &models.Workshop{
		ID: "flap-dissection", Name: "Flap Dissection", Price: 4000, MaxSeats: 2, Active: true,
	}))

	require.NoError(t, repo.BookSeat(db, "flap-dissection"))
	require.NoError(t, repo.BookSeat(db, "flap-dissection"))
	assert.ErrorIs(t, repo.BookSeat(db, "flap-dissection"), repositories.ErrWorkshopFull)

	ws, err := repo.FindByID(db, "flap-dissection")
	require.NoError(t, err)
	assert.Equal(t, 2, ws.BookedSeats)
	assert.Equal(t, 0, ws.SeatsLeft())
}

func TestBookSeat_UnlimitedAndInactive(t *testing.T) {
	t.Parallel()

	db := setupRepoDB(t)
	repo := repositories.NewWorkshopRepository()

	require.NoError(t, repo.Create(db, &models.Workshop{
		ID: "microsurgery-basics", Name: "Microsurgery Basics", Price: 3000, MaxSeats: 0, Active: true,
	}))
	require.NoError(t, repo.Create(db, &models.Workshop{
		ID: "retired-session", Name: "Retired Session", Price: 1000, MaxSeats: 10, Active: false,
	}))

	for i := 0; i < 50; i++ {
		require.NoError(t, repo.BookSeat(db, "microsurgery-basics"))
	}
	ws, err := repo.FindByID(db, "microsurgery-basics")
	require.NoError(t, err)
	assert.Equal(t, 50, ws.BookedSeats)
	assert.Equal(t, -1, ws.SeatsLeft())

	// An inactive workshop with free seats still rejects bookings, and
	// the inactive flag must survive the insert as-is.
	retired, err := repo.FindByID(db, "retired-session")
	require.NoError(t, err)
	assert.False(t, retired.Active)
	assert.ErrorIs(t, repo.BookSeat(db, "retired-session"), repositories.ErrWorkshopFull)

	assert.ErrorIs(t, repo.BookSeat(db, "no-such-workshop"), repositories.ErrWorkshopNotFound)
}

func TestReleaseSeat_NeverBelowZero(t *testing.T) {
	t.Parallel()

	db := setupRepoDB(t)
	repo := repositories.NewWorkshopRepository()

	require.NoError(t, repo.Create(db, &models.Workshop{
		ID: "wrist-arthroscopy", Name: "Wrist Arthroscopy", Price: 3500, MaxSeats: 5, Active: true,
	}))
	require.NoError(t, repo.BookSeat(db, "wrist-arthroscopy"))

	require.NoError(t, repo.ReleaseSeat(db, "wrist-arthroscopy"))
	require.NoError(t, repo.ReleaseSeat(db, "wrist-arthroscopy")) // already at zero

	ws, err := repo.FindByID(db, "wrist-arthroscopy")
	require.NoError(t, err)
	assert.Equal(t, 0, ws.BookedSeats)
}

func TestNextRegistrationID_FormatAndSequence(t *testing.T) {
	t.Parallel()

	db := setupRepoDB(t)
	repo := repositories.NewUserRepository()

	first, err := repo.NextRegistrationID(db, "ORG", 2026)
	require.NoError(t, err)
	assert.Equal(t, "ORG2026-001", first)

	second, err := repo.NextRegistrationID(db, "ORG", 2026)
	require.NoError(t, err)
	assert.Equal(t, "ORG2026-002", second)

	// Separate code/year pairs run independent sequences.
	other, err := repo.NextRegistrationID(db, "ORG", 2027)
	require.NoError(t, err)
	assert.Equal(t, "ORG2027-001", other)
}

func TestNextRegistrationID_ConcurrentAllocationsUnique(t *testing.T) {
	t.Parallel()

	db := setupRepoDB(t)
	repo := repositories.NewUserRepository()

	const workers = 10
	ids := make([]string, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(slot int) {
			defer wg.Done()
			id, err := repo.NextRegistrationID(db, "ORG", 2026)
			if err == nil {
				ids[slot] = id
			}
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, id := range ids {
		if id == "" {
			continue
		}
		assert.False(t, seen[id], "registration id %s handed out twice", id)
		seen[id] = true
	}
}

func TestAuditLog_Immutable(t *testing.T) {
	t.Parallel()

	db := setupRepoDB(t)
	repo := repositories.NewAuditRepository()

	entry := &models.AuditLog{
		ActorID:    "system",
		ActorEmail: "system",
		Action:     models.AuditActionPaymentCompleted,
	}
	require.NoError(t, repo.Append(db, entry))

	err := db.Model(entry).Update("action", models.AuditActionPaymentFailed).Error
	assert.ErrorIs(t, err, appErrors.ErrAuditImmutable)

	err = db.Delete(entry).Error
	assert.ErrorIs(t, err, appErrors.ErrAuditImmutable)

	var reloaded models.AuditLog
	require.NoError(t, db.First(&reloaded, "id = ?", entry.ID).Error)
	assert.Equal(t, models.AuditActionPaymentCompleted, reloaded.Action)
}
