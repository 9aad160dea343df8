package services_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/appErrors"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/config"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/email"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/gateway"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/models"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/repositories"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/services"
)

type stubGateway struct {
	payments map[string]*gateway.Payment
}

func (s *stubGateway) FetchPayment(_ context.Context, paymentID string) (*gateway.Payment, error) {
	if p, ok := s.payments[paymentID]; ok {
		return p, nil
	}
	return nil, appErrors.ExternalServiceError("razorpay", gorm.ErrRecordNotFound)
}

func (s *stubGateway) FetchOrder(_ context.Context, orderID string) (*gateway.Order, error) {
	return &gateway.Order{ID: orderID}, nil
}

type captureMailer struct {
	mu            sync.Mutex
	confirmations []email.ConfirmationData
	alerts        []email.AlertData
}

func (m *captureMailer) SendPaymentConfirmation(data email.ConfirmationData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmations = append(m.confirmations, data)
	return nil
}

func (m *captureMailer) SendSupportAlert(data email.AlertData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, data)
	return nil
}

func (m *captureMailer) Close() error { return nil }

func (m *captureMailer) confirmationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.confirmations)
}

func (m *captureMailer) alertCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.alerts)
}

type paymentFixture struct {
	db       *gorm.DB
	cfg      *config.Config
	gateway  *stubGateway
	mailer   *captureMailer
	attempts services.AttemptService
	svc      services.PaymentService
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()

	db := setupTestDB(t)
	seedPricing(t, db)
	seedWorkshops(t, db)

	cfg := testConfig()
	gw := &stubGateway{payments: map[string]*gateway.Payment{}}
	mailer := &captureMailer{}

	auditService := services.NewAuditService(repositories.NewAuditRepository())
	attemptService := services.NewAttemptService(repositories.NewAttemptRepository())
	pricingService := services.NewPricingService(repositories.NewPricingRepository(), repositories.NewWorkshopRepository(), cfg)

	svc := services.NewPaymentService(
		repositories.NewUserRepository(),
		repositories.NewPaymentRecordRepository(),
		repositories.NewPendingPaymentRepository(),
		repositories.NewWorkshopRepository(),
		attemptService,
		pricingService,
		auditService,
		gw,
		mailer,
		cfg,
	)

	return &paymentFixture{db: db, cfg: cfg, gateway: gw, mailer: mailer, attempts: attemptService, svc: svc}
}

// pinEarlyBird moves the tier windows so the clock falls inside the
// early-bird window during reconciliation, which recalculates at commit
// time rather than at the seeded reference date.
func (f *paymentFixture) pinEarlyBird(t *testing.T) {
	t.Helper()
	now := time.Now()
	require.NoError(t, f.db.Model(&models.PricingTier{}).Where("id = ?", "early-bird").
		Updates(map[string]interface{}{
			"start_date": now.Add(-24 * time.Hour),
			"end_date":   now.Add(24 * time.Hour),
		}).Error)
	require.NoError(t, f.db.Model(&models.PricingTier{}).Where("id = ?", "late").
		Updates(map[string]interface{}{
			"start_date": now.Add(48 * time.Hour),
			"end_date":   now.AddDate(1, 0, 0),
		}).Error)
}

func (f *paymentFixture) capture(orderID, paymentID string, amountPaise int64) {
	f.gateway.payments[paymentID] = &gateway.Payment{
		ID:        paymentID,
		OrderID:   orderID,
		Status:    gateway.PaymentStatusCaptured,
		Amount:    amountPaise,
		Currency:  "INR",
		CreatedAt: time.Now().Unix(),
	}
}

func (f *paymentFixture) signedRequest(orderID, paymentID string) *services.VerifyPaymentRequest {
	return &services.VerifyPaymentRequest{
		RazorpayOrderID:   orderID,
		RazorpayPaymentID: paymentID,
		RazorpaySignature: gateway.SignPayment(orderID, paymentID, f.cfg.Razorpay.KeySecret),
	}
}

func TestVerifyAndReconcile_ForgedSignatureMutatesNothing(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture(t)
	user := createRegistrant(t, f.db, func(u *models.User) {
		u.Payment.OrderID = "order_forged"
	})
	f.capture("order_forged", "pay_forged", 708000)

	req := &services.VerifyPaymentRequest{
		RazorpayOrderID:   "order_forged",
		RazorpayPaymentID: "pay_forged",
		RazorpaySignature: "deadbeef",
	}
	_, err := f.svc.VerifyAndReconcile(context.Background(), f.db, req)
	require.Error(t, err)

	var appErr *appErrors.AppError
	require.True(t, appErrors.As(err, &appErr))
	assert.Equal(t, appErrors.CodeSignatureMismatch, appErr.Code)

	var reloaded models.User
	require.NoError(t, f.db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Equal(t, models.RegistrationStatusPendingPayment, reloaded.Registration.Status)

	var recordCount int64
	f.db.Model(&models.PaymentRecord{}).Count(&recordCount)
	assert.Zero(t, recordCount)
}

func TestVerifyAndReconcile_HappyPath(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture(t)
	f.pinEarlyBird(t)
	user := createRegistrant(t, f.db, func(u *models.User) {
		u.Payment.OrderID = "order_happy"
	})
	f.capture("order_happy", "pay_happy", 708000)

	result, err := f.svc.VerifyAndReconcile(context.Background(), f.db, f.signedRequest("order_happy", "pay_happy"))
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.True(t, result.PaymentSuccessful)
	assert.False(t, result.AlreadyProcessed)
	assert.Equal(t, user.Registration.RegistrationID, result.RegistrationID)
	assert.Equal(t, 7080.0, result.Amount) // recalculated, not taken from the callback

	var reloaded models.User
	require.NoError(t, f.db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Equal(t, models.RegistrationStatusPaid, reloaded.Registration.Status)
	assert.Equal(t, models.PaymentSubStatusVerified, reloaded.Payment.Status)
	assert.Equal(t, "pay_happy", reloaded.Payment.TransactionRef)
	require.NotNil(t, reloaded.Payment.PaidAt)

	var record models.PaymentRecord
	require.NoError(t, f.db.First(&record, "razorpay_payment_id = ?", "pay_happy").Error)
	assert.Equal(t, models.RecordStatusCompleted, record.Status)
	assert.Equal(t, 7080.0, record.Amount.Total)
	assert.Equal(t, "Non ISSH Member", record.BreakdownDetail.RegistrationTypeLabel)

	var auditCount int64
	f.db.Model(&models.AuditLog{}).Where("action = ?", models.AuditActionPaymentCompleted).Count(&auditCount)
	assert.Equal(t, int64(1), auditCount)

	require.Eventually(t, func() bool { return f.mailer.confirmationCount() == 1 },
		2*time.Second, 10*time.Millisecond, "confirmation email should be sent")
}

func TestVerifyAndReconcile_ReplayIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture(t)
	createRegistrant(t, f.db, func(u *models.User) {
		u.Payment.OrderID = "order_replay"
	})
	f.capture("order_replay", "pay_replay", 708000)

	first, err := f.svc.VerifyAndReconcile(context.Background(), f.db, f.signedRequest("order_replay", "pay_replay"))
	require.NoError(t, err)
	require.True(t, first.Success)

	second, err := f.svc.VerifyAndReconcile(context.Background(), f.db, f.signedRequest("order_replay", "pay_replay"))
	require.NoError(t, err)
	assert.True(t, second.Success)
	assert.True(t, second.AlreadyProcessed)

	var recordCount int64
	f.db.Model(&models.PaymentRecord{}).Where("razorpay_payment_id = ?", "pay_replay").Count(&recordCount)
	assert.Equal(t, int64(1), recordCount)
}

func TestVerifyAndReconcile_NotCapturedRejected(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture(t)
	createRegistrant(t, f.db, func(u *models.User) {
		u.Payment.OrderID = "order_created"
	})
	f.gateway.payments["pay_created"] = &gateway.Payment{
		ID:      "pay_created",
		OrderID: "order_created",
		Status:  gateway.PaymentStatusCreated,
		Amount:  708000,
	}

	_, err := f.svc.VerifyAndReconcile(context.Background(), f.db, f.signedRequest("order_created", "pay_created"))
	require.Error(t, err)

	var appErr *appErrors.AppError
	require.True(t, appErrors.As(err, &appErr))
	assert.Equal(t, appErrors.CodePaymentNotCaptured, appErr.Code)
}

func TestVerifyAndReconcile_LegacyFlowCreatesRegistrant(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture(t)
	f.capture("order_legacy", "pay_legacy", 708000)

	req := f.signedRequest("order_legacy", "pay_legacy")
	req.LegacyRegistration = &services.LegacyRegistrationPayload{
		Email:    "legacy@example.test",
		Name:     "Legacy Delegate",
		Category: "non-issh-member",
	}

	result, err := f.svc.VerifyAndReconcile(context.Background(), f.db, req)
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Regexp(t, `^ORG2026-\d{3}$`, result.RegistrationID)

	var created models.User
	require.NoError(t, f.db.First(&created, "email = ?", "legacy@example.test").Error)
	assert.Equal(t, models.RegistrationStatusPaid, created.Registration.Status)
	assert.Equal(t, result.RegistrationID, created.Registration.RegistrationID)
}

func TestVerifyAndReconcile_UnresolvableRegistrant(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture(t)
	f.capture("order_lost", "pay_lost", 708000)

	_, err := f.svc.VerifyAndReconcile(context.Background(), f.db, f.signedRequest("order_lost", "pay_lost"))
	require.Error(t, err)

	var appErr *appErrors.AppError
	require.True(t, appErrors.As(err, &appErr))
	assert.Equal(t, appErrors.CodeRegistrantNotResolve, appErr.Code)
}

func TestVerifyAndReconcile_PostCaptureFailureRecordsRecovery(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture(t)
	f.capture("order_broken", "pay_broken", 708000)

	// The pricing lookup for this category cannot succeed, so the commit
	// fails after the gateway has already confirmed the capture.
	req := f.signedRequest("order_broken", "pay_broken")
	req.LegacyRegistration = &services.LegacyRegistrationPayload{
		Email:    "broken@example.test",
		Name:     "Broken Flow",
		Category: "category-with-no-pricing",
	}

	result, err := f.svc.VerifyAndReconcile(context.Background(), f.db, req)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.True(t, result.PaymentSuccessful)
	assert.True(t, result.RecoveryNeeded)
	require.NotNil(t, result.Support)
	assert.Equal(t, f.cfg.Support.AlertEmail, result.Support.Email)

	var pending models.PendingPayment
	require.NoError(t, f.db.First(&pending, "razorpay_payment_id = ?", "pay_broken").Error)
	assert.Equal(t, models.PendingPaymentUserCreationFailed, pending.Status)
	assert.Equal(t, 7080.0, pending.Amount)

	var payload services.LegacyRegistrationPayload
	require.NoError(t, json.Unmarshal(pending.RegistrantPayload, &payload))
	assert.Equal(t, "broken@example.test", payload.Email)

	require.Eventually(t, func() bool { return f.mailer.alertCount() == 1 },
		2*time.Second, 10*time.Millisecond, "support alert should be sent")
}

func TestVerifyAndReconcile_AddonBooksSeatsAndSkipsFull(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture(t)
	user := createRegistrant(t, f.db, func(u *models.User) {
		u.Registration.Status = models.RegistrationStatusPaid
		u.Payment.OrderID = "order_addon"
	})

	// wrist-arthroscopy seeded with MaxSeats 2; fill it up.
	require.NoError(t, f.db.Model(&models.Workshop{}).Where("id = ?", "wrist-arthroscopy").
		Update("booked_seats", 2).Error)

	_, err := f.attempts.RecordAttempt(f.db, services.RecordAttemptInput{
		RegistrationID:  user.Registration.RegistrationID,
		Method:          models.PaymentMethodRazorpay,
		Purpose:         models.RecordTypeWorkshopAddon,
		Amount:          8850,
		Currency:        "INR",
		RazorpayOrderID: "order_addon",
		MethodRefs: map[string]interface{}{
			"workshopIds": []string{"wrist-arthroscopy", "flap-dissection"},
		},
	})
	require.NoError(t, err)

	f.capture("order_addon", "pay_addon", 885000)

	result, err := f.svc.VerifyAndReconcile(context.Background(), f.db, f.signedRequest("order_addon", "pay_addon"))
	require.NoError(t, err)
	require.True(t, result.Success)

	var reloaded models.User
	require.NoError(t, f.db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Contains(t, reloaded.Registration.Workshops, "flap-dissection")
	assert.NotContains(t, reloaded.Registration.Workshops, "wrist-arthroscopy")

	var full models.Workshop
	require.NoError(t, f.db.First(&full, "id = ?", "wrist-arthroscopy").Error)
	assert.Equal(t, 2, full.BookedSeats) // never overbooked

	var skipped int64
	f.db.Model(&models.AuditLog{}).Where("action = ?", models.AuditActionWorkshopSkipped).Count(&skipped)
	assert.Equal(t, int64(1), skipped)
}

func TestResolvePendingPayment(t *testing.T) {
	t.Parallel()

	f := newPaymentFixture(t)

	payload, _ := json.Marshal(services.LegacyRegistrationPayload{
		Email:    "rescued@example.test",
		Name:     "Rescued Delegate",
		Category: "non-issh-member",
	})
	pending := &models.PendingPayment{
		RazorpayOrderID:   "order_rescue",
		RazorpayPaymentID: "pay_rescue",
		Amount:            7080,
		Currency:          "INR",
		RegistrantPayload: payload,
		FailureReason:     "user creation failed",
		Status:            models.PendingPaymentUserCreationFailed,
	}
	require.NoError(t, f.db.Create(pending).Error)

	actor := services.Actor{ID: "admin-1", Email: "admin@example.test", Role: models.UserRoleAdmin}
	user, err := f.svc.ResolvePendingPayment(context.Background(), f.db, pending.ID, actor, "verified against gateway dashboard")
	require.NoError(t, err)

	assert.Equal(t, models.RegistrationStatusPaid, user.Registration.Status)
	assert.Equal(t, "rescued@example.test", user.Email)

	var record models.PaymentRecord
	require.NoError(t, f.db.First(&record, "razorpay_payment_id = ?", "pay_rescue").Error)
	assert.Equal(t, models.RecordStatusCompleted, record.Status)

	var reloaded models.PendingPayment
	require.NoError(t, f.db.First(&reloaded, "id = ?", pending.ID).Error)
	assert.Equal(t, models.PendingPaymentResolved, reloaded.Status)
	assert.Equal(t, "admin-1", reloaded.ResolvedBy)

	// Resolving twice must fail.
	_, err = f.svc.ResolvePendingPayment(context.Background(), f.db, pending.ID, actor, "again")
	require.Error(t, err)
}
