package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/appErrors"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/models"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/repositories"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/services"
)

func TestRecalculateRegistration_BasePlusGST(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	seedPricing(t, db)
	svc := services.NewPricingService(repositories.NewPricingRepository(), repositories.NewWorkshopRepository(), testConfig())

	user := createRegistrant(t, db, nil)

	amount, breakdown, err := svc.RecalculateRegistration(db, user, services.RecalcOptions{Now: earlyBirdRef})
	require.NoError(t, err)

	assert.Equal(t, 6000.0, amount.Registration)
	assert.Equal(t, 1080.0, amount.GST) // 18% of 6000
	assert.Equal(t, 7080.0, amount.Total)
	assert.Equal(t, "INR", amount.Currency)
	assert.Equal(t, "Non ISSH Member", breakdown.RegistrationTypeLabel)
	assert.Equal(t, "early-bird", breakdown.TierID)
}

func TestRecalculateRegistration_WorkshopAndAccompanying(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	seedPricing(t, db)
	seedWorkshops(t, db)
	svc := services.NewPricingService(repositories.NewPricingRepository(), repositories.NewWorkshopRepository(), testConfig())

	user := createRegistrant(t, db, func(u *models.User) {
		u.Registration.Workshops = []string{"wrist-arthroscopy"}
		u.Registration.AccompanyingPersons = []models.AccompanyingPerson{
			{Name: "Child", Age: 8},
			{Name: "Spouse", Age: 25},
		}
	})

	amount, breakdown, err := svc.RecalculateRegistration(db, user, services.RecalcOptions{Now: earlyBirdRef})
	require.NoError(t, err)

	// 6000 base + 3500 workshop + one billable accompanying person at
	// 2500 (the 8-year-old is under the exemption threshold of 10).
	assert.Equal(t, 3500.0, amount.Workshops)
	assert.Equal(t, 2500.0, amount.AccompanyingPersons)
	assert.Equal(t, 2160.0, amount.GST) // 18% of 12000
	assert.Equal(t, 14160.0, amount.Total)

	require.Len(t, breakdown.AccompanyingPersonFees, 2)
	assert.True(t, breakdown.AccompanyingPersonFees[0].Exempt)
	assert.Zero(t, breakdown.AccompanyingPersonFees[0].Amount)
	assert.False(t, breakdown.AccompanyingPersonFees[1].Exempt)
	assert.Equal(t, 2500.0, breakdown.AccompanyingPersonFees[1].Amount)
}

func TestRecalculateRegistration_DiscountCodeAfterGST(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	seedPricing(t, db)
	svc := services.NewPricingService(repositories.NewPricingRepository(), repositories.NewWorkshopRepository(), testConfig())

	require.NoError(t, db.Create(&models.Discount{
		Type:    models.DiscountTypeCode,
		Code:    "FACULTY10",
		Percent: 10,
		Active:  true,
	}).Error)

	user := createRegistrant(t, db, nil)

	amount, breakdown, err := svc.RecalculateRegistration(db, user, services.RecalcOptions{
		Now:          earlyBirdRef,
		DiscountCode: "FACULTY10",
	})
	require.NoError(t, err)

	// Discount applies on the gross (GST-inclusive) total: 7080 * 10%.
	assert.Equal(t, 708.0, amount.Discount)
	assert.Equal(t, 6372.0, amount.Total)
	require.Len(t, breakdown.DiscountsApplied, 1)
	assert.Equal(t, "FACULTY10", breakdown.DiscountsApplied[0].Code)
}

func TestRecalculateRegistration_UnknownDiscountCodeIgnored(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	seedPricing(t, db)
	svc := services.NewPricingService(repositories.NewPricingRepository(), repositories.NewWorkshopRepository(), testConfig())

	user := createRegistrant(t, db, nil)

	amount, _, err := svc.RecalculateRegistration(db, user, services.RecalcOptions{
		Now:          earlyBirdRef,
		DiscountCode: "NOPE",
	})
	require.NoError(t, err)
	assert.Zero(t, amount.Discount)
	assert.Equal(t, 7080.0, amount.Total)
}

func TestRecalculateRegistration_MissingCategoryFailsLoudly(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	seedPricing(t, db)
	svc := services.NewPricingService(repositories.NewPricingRepository(), repositories.NewWorkshopRepository(), testConfig())

	user := createRegistrant(t, db, func(u *models.User) {
		u.Registration.Category = "exhibitor"
	})

	_, _, err := svc.RecalculateRegistration(db, user, services.RecalcOptions{Now: earlyBirdRef})
	require.Error(t, err)

	var appErr *appErrors.AppError
	require.True(t, appErrors.As(err, &appErr))
	assert.Equal(t, appErrors.CodePricingNotConfigured, appErr.Code)
}

func TestResolveActiveTier_WindowAndDefault(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	seedPricing(t, db)
	svc := services.NewPricingService(repositories.NewPricingRepository(), repositories.NewWorkshopRepository(), testConfig())

	inWindow, err := svc.ResolveActiveTier(db, earlyBirdRef)
	require.NoError(t, err)
	assert.Equal(t, "early-bird", inWindow.Tier.ID)
	assert.Equal(t, services.TierSourceWindow, inWindow.Source)

	// A year later no window matches; the configured default wins.
	fallback, err := svc.ResolveActiveTier(db, earlyBirdRef.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, "late", fallback.Tier.ID)
	assert.Equal(t, services.TierSourceDefault, fallback.Source)
}

func TestRecalculateWorkshopAddon(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	seedPricing(t, db)
	seedWorkshops(t, db)
	svc := services.NewPricingService(repositories.NewPricingRepository(), repositories.NewWorkshopRepository(), testConfig())

	user := createRegistrant(t, db, nil)

	amount, breakdown, err := svc.RecalculateWorkshopAddon(db, user, []string{"flap-dissection"}, services.RecalcOptions{Now: earlyBirdRef})
	require.NoError(t, err)

	assert.Equal(t, 4000.0, amount.Workshops)
	assert.Zero(t, amount.Registration)
	assert.Equal(t, 720.0, amount.GST)
	assert.Equal(t, 4720.0, amount.Total)
	assert.Equal(t, "Workshop Add-on", breakdown.RegistrationTypeLabel)
}

func TestTierWindowBoundariesInclusive(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	seedPricing(t, db)
	svc := services.NewPricingService(repositories.NewPricingRepository(), repositories.NewWorkshopRepository(), testConfig())

	var tier models.PricingTier
	require.NoError(t, db.First(&tier, "id = ?", "early-bird").Error)

	onStart, err := svc.ResolveActiveTier(db, tier.StartDate)
	require.NoError(t, err)
	assert.Equal(t, "early-bird", onStart.Tier.ID)

	onEnd, err := svc.ResolveActiveTier(db, tier.EndDate)
	require.NoError(t, err)
	assert.Equal(t, "early-bird", onEnd.Tier.ID)
}

func TestRecalculateWorkshopAddon_UnknownWorkshop(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	seedPricing(t, db)
	svc := services.NewPricingService(repositories.NewPricingRepository(), repositories.NewWorkshopRepository(), testConfig())

	user := createRegistrant(t, db, nil)

	_, _, err := svc.RecalculateWorkshopAddon(db, user, []string{"ghost-lab"}, services.RecalcOptions{Now: earlyBirdRef})
	require.Error(t, err)

	var appErr *appErrors.AppError
	require.True(t, appErrors.As(err, &appErr))
	assert.Equal(t, appErrors.CodePricingNotConfigured, appErr.Code)
}
