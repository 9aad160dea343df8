package services_test

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/config"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/models"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/repositories"
)

var dbCounter int64

// setupTestDB opens a private in-memory database and migrates the full
// schema. Each call gets its own database so parallel tests do not share
// state.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := atomic.AddInt64(&dbCounter, 1)
	dsn := fmt.Sprintf("file:services_test_%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.PaymentAttempt{},
		&models.PaymentRecord{},
		&models.PendingPayment{},
		&models.AuditLog{},
		&models.Workshop{},
		&models.PricingTier{},
		&models.CategoryPrice{},
		&models.Discount{},
		&models.SequenceCounter{},
	))

	return db
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Pricing.Currency = "INR"
	cfg.Pricing.GSTPercent = 18
	cfg.Pricing.AgeExemptionMax = 10
	cfg.Pricing.DefaultTierID = "late"
	cfg.Pricing.RegistrationYear = 2026
	cfg.Pricing.RegistrationCode = "ORG"
	cfg.Razorpay.KeySecret = "test_key_secret"
	cfg.Razorpay.WebhookSecret = "test_webhook_secret"
	cfg.Support.AlertEmail = "support@example.test"
	cfg.Support.Phone = "+91-1234567890"
	return cfg
}

// seedPricing installs an Early Bird window around earlyBirdRef and a
// default Late tier, with the standard category grid.
func seedPricing(t *testing.T, db *gorm.DB) {
	t.Helper()

	pricingRepo := repositories.NewPricingRepository()
	tiers := []models.PricingTier{
		{
			ID:                    "early-bird",
			Name:                  "Early Bird",
			StartDate:             earlyBirdRef.AddDate(0, -1, 0),
			EndDate:               earlyBirdRef.AddDate(0, 1, 0),
			AccompanyingPersonFee: 2500,
			Categories: []models.CategoryPrice{
				{TierID: "early-bird", CategoryKey: "issh-member", Label: "ISSH Member", Amount: 4500},
				{TierID: "early-bird", CategoryKey: "non-issh-member", Label: "Non ISSH Member", Amount: 6000},
			},
		},
		{
			ID:                    "late",
			Name:                  "Late / Spot",
			StartDate:             earlyBirdRef.AddDate(0, 2, 0),
			EndDate:               earlyBirdRef.AddDate(0, 6, 0),
			AccompanyingPersonFee: 3500,
			IsDefault:             true,
			Categories: []models.CategoryPrice{
				{TierID: "late", CategoryKey: "issh-member", Label: "ISSH Member", Amount: 7500},
				{TierID: "late", CategoryKey: "non-issh-member", Label: "Non ISSH Member", Amount: 9000},
			},
		},
	}
	for i := range tiers {
		require.NoError(t, pricingRepo.UpsertTier(db, &tiers[i]))
	}
}

// earlyBirdRef is inside the seeded Early Bird window.
var earlyBirdRef = time.Date(2025, time.November, 15, 12, 0, 0, 0, time.UTC)

func seedWorkshops(t *testing.T, db *gorm.DB) {
	t.Helper()

	workshops := []models.Workshop{
		{ID: "wrist-arthroscopy", Name: "Wrist Arthroscopy Cadaver Lab", Price: 3500, MaxSeats: 2, Active: true},
		{ID: "flap-dissection", Name: "Flap Dissection Masterclass", Price: 4000, MaxSeats: 0, Active: true},
	}
	for i := range workshops {
		require.NoError(t, db.Create(&workshops[i]).Error)
	}
}

func createRegistrant(t *testing.T, db *gorm.DB, mutate func(*models.User)) *models.User {
	t.Helper()

	n := atomic.AddInt64(&dbCounter, 1)
	now := time.Now()
	user := &models.User{
		Email: fmt.Sprintf("delegate-%d@example.test", n),
		Name:  "Test Delegate",
		Role:  models.UserRoleDelegate,
		Registration: models.Registration{
			RegistrationID: fmt.Sprintf("ORG2026-%03d", n),
			Category:       "non-issh-member",
			Status:         models.RegistrationStatusPendingPayment,
			PaymentType:    models.PaymentTypePending,
			RegisteredAt:   &now,
		},
	}
	if mutate != nil {
		mutate(user)
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
