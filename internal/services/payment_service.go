package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/appErrors"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/config"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/email"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/gateway"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/logger"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/models"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/repositories"
)

// LegacyRegistrationPayload carries the registration details for the
// backward-compatible flow where account creation was deferred until the
// payment succeeded.
type LegacyRegistrationPayload struct {
	Email                 string                      `json:"email" validate:"required,email"`
	Name                  string                      `json:"name" validate:"required"`
	Phone                 string                      `json:"phone"`
	Institution           string                      `json:"institution"`
	Category              string                      `json:"category" validate:"required"`
	Workshops             []string                    `json:"workshops"`
	AccompanyingPersons   []models.AccompanyingPerson `json:"accompanyingPersons"`
	AccommodationSelected bool                        `json:"accommodationSelected"`
	AccommodationTotal    float64                     `json:"accommodationTotal"`
}

// VerifyPaymentRequest is the reconciliation entry contract.
type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`

	LegacyRegistration *LegacyRegistrationPayload `json:"registrationData,omitempty"`
	DiscountCode       string                     `json:"discountCode,omitempty"`

	// Set by the handler, never from the request body.
	SessionUserID string `json:"-"`
	IPAddress     string `json:"-"`
	UserAgent     string `json:"-"`
}

// SupportInfo is returned on the captured-but-unrecorded failure path.
type SupportInfo struct {
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	Instructions string `json:"instructions"`
}

// VerifyPaymentResult is the terminal outcome of one reconciliation.
type VerifyPaymentResult struct {
	Success           bool   `json:"success"`
	AlreadyProcessed  bool   `json:"alreadyProcessed,omitempty"`
	PaymentSuccessful bool   `json:"paymentSuccessful"`
	RecoveryNeeded    bool   `json:"-"`
	Message           string `json:"message"`

	PaymentID      string                    `json:"paymentId,omitempty"`
	OrderID        string                    `json:"orderId,omitempty"`
	RegistrationID string                    `json:"registrationId,omitempty"`
	Amount         float64                   `json:"amount,omitempty"`
	Currency       string                    `json:"currency,omitempty"`
	Status         models.RegistrationStatus `json:"status,omitempty"`

	Support *SupportInfo `json:"support,omitempty"`
}

// PaymentService is the reconciliation orchestrator: it takes a gateway
// callback through signature verification, authoritative payment fetch,
// registrant resolution, the idempotency guard, the transactional commit,
// inventory adjustment, audit, and best-effort notification. Once the
// signature verifies, the operation always runs to a terminal state; a
// unit of work that may represent captured money is never abandoned.
// PaymentStatus is the reconciliation view of one registration: current
// registration and payment state plus the full attempt history.
type PaymentStatus struct {
	RegistrationID string                    `json:"registrationId"`
	Status         models.RegistrationStatus `json:"status"`
	Payment        models.PaymentState       `json:"payment"`
	Attempts       []models.PaymentAttempt   `json:"attempts"`
	Records        []models.PaymentRecord    `json:"records"`
}

type PaymentService interface {
	VerifyAndReconcile(ctx context.Context, db *gorm.DB, req *VerifyPaymentRequest) (*VerifyPaymentResult, error)

	// StatusForRegistration reports the registration's payment state and
	// attempt history.
	StatusForRegistration(db *gorm.DB, registrationID string) (*PaymentStatus, error)

	// ListPendingPayments returns open recovery records for the back office.
	ListPendingPayments(db *gorm.DB) ([]models.PendingPayment, error)

	// ResolvePendingPayment completes a recovery record manually: it
	// creates the registrant from the stored payload, finalizes the
	// payment record, and closes the recovery record.
	ResolvePendingPayment(ctx context.Context, db *gorm.DB, pendingID string, actor Actor, notes string) (*models.User, error)
}

type paymentService struct {
	userRepo     repositories.UserRepository
	recordRepo   repositories.PaymentRecordRepository
	pendingRepo  repositories.PendingPaymentRepository
	workshopRepo repositories.WorkshopRepository

	attempts AttemptService
	pricing  PricingService
	audit    AuditService

	gateway gateway.Client
	mailer  email.Provider
	cfg     *config.Config

	commitRetries int
	retryBackoff  time.Duration
}

func NewPaymentService(
	userRepo repositories.UserRepository,
	recordRepo repositories.PaymentRecordRepository,
	pendingRepo repositories.PendingPaymentRepository,
	workshopRepo repositories.WorkshopRepository,
	attempts AttemptService,
	pricing PricingService,
	audit AuditService,
	gatewayClient gateway.Client,
	mailer email.Provider,
	cfg *config.Config,
) PaymentService {
	return &paymentService{
		userRepo:      userRepo,
		recordRepo:    recordRepo,
		pendingRepo:   pendingRepo,
		workshopRepo:  workshopRepo,
		attempts:      attempts,
		pricing:       pricing,
		audit:         audit,
		gateway:       gatewayClient,
		mailer:        mailer,
		cfg:           cfg,
		commitRetries: 3,
		retryBackoff:  100 * time.Millisecond,
	}
}

func (s *paymentService) VerifyAndReconcile(ctx context.Context, db *gorm.DB, req *VerifyPaymentRequest) (*VerifyPaymentResult, error) {
	// Step 1: signature. Reject is terminal; the callback is treated as
	// forged and nothing below runs.
	if !gateway.VerifyPaymentSignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature, s.cfg.Razorpay.KeySecret) {
		logger.PaymentLog("signature_rejected", req.RazorpayOrderID, req.RazorpayPaymentID, "", nil)
		return nil, appErrors.ErrSignatureMismatch
	}

	// Step 2: fetch the authoritative payment object from the gateway,
	// never trusting the request body beyond its identifiers.
	payment, err := s.gateway.FetchPayment(ctx, req.RazorpayPaymentID)
	if err != nil {
		return nil, appErrors.ExternalServiceError("razorpay", err)
	}
	if payment.OrderID != "" && payment.OrderID != req.RazorpayOrderID {
		return nil, appErrors.ErrSignatureMismatch.WithDetails("order id does not match the gateway payment")
	}
	if !payment.IsSuccessful() {
		return nil, appErrors.ErrPaymentNotCaptured.WithDetails(map[string]string{"gatewayStatus": payment.Status})
	}

	// Step 3: resolve the registrant.
	user, legacy, err := s.resolveRegistrant(db, req)
	if err != nil {
		return nil, err
	}

	// Step 4: idempotency guard. A replayed callback takes the
	// short-circuit with no duplicate side effects.
	if existing, err := s.recordRepo.FindByGatewayPaymentID(db, req.RazorpayPaymentID); err == nil {
		if existing.Status == models.RecordStatusCompleted {
			logger.PaymentLog("already_processed", req.RazorpayOrderID, req.RazorpayPaymentID, existing.RegistrationID, nil)
			return s.alreadyProcessedResult(existing), nil
		}
	} else if !errors.Is(err, repositories.ErrPaymentRecordNotFound) {
		return nil, err
	}

	// The purpose (registration vs workshop add-on) and the add-on
	// workshop ids come from the attempt that opened this gateway order.
	attempt, _ := s.attempts.FindByGatewayOrderID(db, req.RazorpayOrderID)
	purpose := models.RecordTypeRegistration
	var addonWorkshops []string
	if attempt != nil {
		purpose = attempt.Purpose
		addonWorkshops = attemptWorkshopIDs(attempt)
	}

	// Step 5: transactional commit with bounded retry. Transient datastore
	// contention is expected and must not be conflated with a business
	// failure; business errors are never retried.
	user, record, commitErr := s.commitWithRetry(ctx, db, req, payment, user, legacy, purpose, addonWorkshops)
	if commitErr != nil {
		if errors.Is(commitErr, repositories.ErrDuplicatePaymentID) {
			// Lost the race against a concurrent duplicate callback.
			if existing, err := s.recordRepo.FindByGatewayPaymentID(db, req.RazorpayPaymentID); err == nil {
				return s.alreadyProcessedResult(existing), nil
			}
		}
		// Money has moved but the commit failed: the critical path.
		return s.handlePostCaptureFailure(db, req, payment, legacy, user, commitErr)
	}

	// Step 6: inventory, only for workshop add-ons. Registration-time
	// selections are booked at registration time, not here.
	if purpose == models.RecordTypeWorkshopAddon && len(addonWorkshops) > 0 {
		s.adjustInventory(db, user, addonWorkshops, req)
	}

	// Step 7: audit and attempt ledger.
	s.recordCompletion(db, req, user, record, attempt)

	// Step 8: best-effort notification. Failure to send never fails the
	// reconciliation.
	s.notifyAsync(user, record)

	logger.PaymentLog("reconciled", req.RazorpayOrderID, req.RazorpayPaymentID, user.Registration.RegistrationID, nil)

	return &VerifyPaymentResult{
		Success:           true,
		PaymentSuccessful: true,
		Message:           "Payment verified and registration confirmed",
		PaymentID:         req.RazorpayPaymentID,
		OrderID:           req.RazorpayOrderID,
		RegistrationID:    user.Registration.RegistrationID,
		Amount:            record.Amount.Total,
		Currency:          record.Amount.Currency,
		Status:            user.Registration.Status,
	}, nil
}

// resolveRegistrant tries, in order: the registrant whose payment
// sub-state references this order id, the legacy payload, the session
// user. A nil user with a non-nil legacy payload means the registrant
// will be created inside the commit.
func (s *paymentService) resolveRegistrant(db *gorm.DB, req *VerifyPaymentRequest) (*models.User, *LegacyRegistrationPayload, error) {
	user, err := s.userRepo.FindByPaymentOrderID(db, req.RazorpayOrderID)
	if err == nil {
		return user, nil, nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, nil, err
	}

	if req.LegacyRegistration != nil {
		// The account may already exist from an earlier partial attempt.
		if existing, err := s.userRepo.FindByEmail(db, req.LegacyRegistration.Email); err == nil {
			return existing, nil, nil
		}
		return nil, req.LegacyRegistration, nil
	}

	if req.SessionUserID != "" {
		user, err := s.userRepo.FindByID(db, req.SessionUserID)
		if err == nil {
			return user, nil, nil
		}
		if !errors.Is(err, repositories.ErrUserNotFound) {
			return nil, nil, err
		}
	}

	return nil, nil, appErrors.ErrRegistrantNotResolved
}

func (s *paymentService) commitWithRetry(
	ctx context.Context,
	db *gorm.DB,
	req *VerifyPaymentRequest,
	payment *gateway.Payment,
	user *models.User,
	legacy *LegacyRegistrationPayload,
	purpose models.RecordType,
	addonWorkshops []string,
) (*models.User, *models.PaymentRecord, error) {
	var committedUser *models.User
	var committedRecord *models.PaymentRecord
	var lastErr error

	for i := 0; i < s.commitRetries; i++ {
		if i > 0 {
			select {
			case <-time.After(s.retryBackoff * time.Duration(i)):
			case <-ctx.Done():
				// Keep going: once the signature verified this operation
				// runs to a terminal state regardless of caller timeouts.
			}
		}

		lastErr = db.Transaction(func(tx *gorm.DB) error {
			u, record, err := s.commit(tx, req, payment, user, legacy, purpose, addonWorkshops)
			if err != nil {
				return err
			}
			committedUser = u
			committedRecord = record
			return nil
		})

		if lastErr == nil {
			return committedUser, committedRecord, nil
		}
		if !isTransient(lastErr) {
			return nil, nil, lastErr
		}
		logger.PaymentLog("commit_retry", req.RazorpayOrderID, req.RazorpayPaymentID, "", lastErr)
	}

	return nil, nil, lastErr
}

// commit is the atomic unit: registrant creation (legacy flow), the
// registration/payment status flip, and the payment record, all in one
// transaction.
func (s *paymentService) commit(
	tx *gorm.DB,
	req *VerifyPaymentRequest,
	payment *gateway.Payment,
	resolved *models.User,
	legacy *LegacyRegistrationPayload,
	purpose models.RecordType,
	addonWorkshops []string,
) (*models.User, *models.PaymentRecord, error) {
	user := resolved

	if user == nil {
		created, err := s.createLegacyRegistrant(tx, legacy)
		if err != nil {
			return nil, nil, err
		}
		user = created
	}

	// Recalculate the charge independently of whatever amount the client
	// or even the gateway order claimed.
	var amount *models.PaymentAmount
	var breakdown *models.Breakdown
	var err error
	opts := RecalcOptions{Now: time.Now(), DiscountCode: req.DiscountCode}
	if purpose == models.RecordTypeWorkshopAddon {
		amount, breakdown, err = s.pricing.RecalculateWorkshopAddon(tx, user, addonWorkshops, opts)
	} else {
		amount, breakdown, err = s.pricing.RecalculateRegistration(tx, user, opts)
	}
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()

	if purpose == models.RecordTypeRegistration {
		if !user.Registration.Status.CanTransitionTo(models.RegistrationStatusPaid) {
			return nil, nil, appErrors.ErrInvalidTransition.WithDetails(map[string]string{
				"from": string(user.Registration.Status),
				"to":   string(models.RegistrationStatusPaid),
			})
		}
		user.Registration.Status = models.RegistrationStatusPaid
		user.Registration.PaymentType = models.PaymentTypeOnline
	}

	user.Payment = models.PaymentState{
		Method:         models.PaymentMethodRazorpay,
		Status:         models.PaymentSubStatusVerified,
		Amount:         amount.Total,
		OrderID:        req.RazorpayOrderID,
		TransactionRef: req.RazorpayPaymentID,
		PaidAt:         &now,
	}

	if err := s.userRepo.Save(tx, user); err != nil {
		return nil, nil, err
	}

	record, err := s.finalizeRecord(tx, req, payment, user, purpose, amount, breakdown, now)
	if err != nil {
		return nil, nil, err
	}

	return user, record, nil
}

func (s *paymentService) createLegacyRegistrant(tx *gorm.DB, legacy *LegacyRegistrationPayload) (*models.User, error) {
	registrationID, err := s.userRepo.NextRegistrationID(tx, s.cfg.Pricing.RegistrationCode, s.cfg.Pricing.RegistrationYear)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		Email:       legacy.Email,
		Name:        legacy.Name,
		Phone:       legacy.Phone,
		Institution: legacy.Institution,
		Role:        models.UserRoleDelegate,
		Registration: models.Registration{
			RegistrationID:        registrationID,
			Category:              legacy.Category,
			Status:                models.RegistrationStatusPendingPayment,
			PaymentType:           models.PaymentTypePending,
			Workshops:             legacy.Workshops,
			AccompanyingPersons:   legacy.AccompanyingPersons,
			AccommodationSelected: legacy.AccommodationSelected,
			AccommodationTotal:    legacy.AccommodationTotal,
			RegisteredAt:          &now,
		},
	}

	if err := s.userRepo.Create(tx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// finalizeRecord creates the ledger entry, or completes a pending one
// left by the attempt flow. Created-or-finalized exactly once per real
// payment: the unique index on the gateway payment id backs this up.
func (s *paymentService) finalizeRecord(
	tx *gorm.DB,
	req *VerifyPaymentRequest,
	payment *gateway.Payment,
	user *models.User,
	purpose models.RecordType,
	amount *models.PaymentAmount,
	breakdown *models.Breakdown,
	now time.Time,
) (*models.PaymentRecord, error) {
	record, err := s.recordRepo.FindByGatewayOrderID(tx, req.RazorpayOrderID)
	if err != nil {
		if !errors.Is(err, repositories.ErrPaymentRecordNotFound) {
			return nil, err
		}
		record = &models.PaymentRecord{}
	} else if record.Status == models.RecordStatusCompleted {
		return nil, repositories.ErrDuplicatePaymentID
	}

	record.UserID = user.ID
	record.RegistrationID = user.Registration.RegistrationID
	record.Type = purpose
	record.RazorpayOrderID = req.RazorpayOrderID
	record.RazorpayPaymentID = req.RazorpayPaymentID
	record.RazorpaySignature = req.RazorpaySignature
	record.Amount = *amount
	record.BreakdownDetail = *breakdown
	record.Status = models.RecordStatusCompleted
	record.PaymentMethod = models.PaymentMethodRazorpay
	record.TransactionAt = time.Unix(payment.CreatedAt, 0)
	if payment.CreatedAt == 0 {
		record.TransactionAt = now
	}

	if record.ID == "" {
		if err := s.recordRepo.Create(tx, record); err != nil {
			return nil, err
		}
	} else {
		if err := s.recordRepo.Save(tx, record); err != nil {
			return nil, err
		}
	}

	return record, nil
}

// handlePostCaptureFailure is the critical path: the gateway confirmed a
// captured payment but the commit failed. It persists a recovery record,
// alerts support, and answers with a response that says the payment
// succeeded, never plain failure when money has moved and never a
// silent success when the record was not created.
func (s *paymentService) handlePostCaptureFailure(
	db *gorm.DB,
	req *VerifyPaymentRequest,
	payment *gateway.Payment,
	legacy *LegacyRegistrationPayload,
	user *models.User,
	cause error,
) (*VerifyPaymentResult, error) {
	logger.PaymentLog("post_capture_commit_failed", req.RazorpayOrderID, req.RazorpayPaymentID, "", cause)

	payloadJSON := s.recoveryPayload(legacy, user)

	pending := &models.PendingPayment{
		RazorpayOrderID:   req.RazorpayOrderID,
		RazorpayPaymentID: req.RazorpayPaymentID,
		Amount:            payment.AmountInRupees(),
		Currency:          payment.Currency,
		RegistrantPayload: datatypes.JSON(payloadJSON),
		FailureReason:     cause.Error(),
		Status:            models.PendingPaymentUserCreationFailed,
	}

	if err := s.pendingRepo.Create(db, pending); err != nil {
		// Even the recovery record failed. Everything needed for manual
		// reconciliation must at least reach the logs.
		logger.PaymentLog("recovery_record_failed", req.RazorpayOrderID, req.RazorpayPaymentID, "", err)
		logger.Error("UNRECOVERABLE payment state, manual action required",
			"payment_id", req.RazorpayPaymentID,
			"order_id", req.RazorpayOrderID,
			"amount", payment.AmountInRupees(),
			"payload", string(payloadJSON),
		)
	} else {
		if _, err := s.audit.Append(db, AuditEntry{
			Actor:        SystemActor,
			Action:       models.AuditActionPaymentRecovery,
			ResourceType: "pending_payment",
			ResourceID:   pending.ID,
			IPAddress:    req.IPAddress,
			UserAgent:    req.UserAgent,
			Description:  fmt.Sprintf("captured payment %s could not be committed: %v", req.RazorpayPaymentID, cause),
		}); err != nil {
			logger.WithError(err).Error("failed to audit recovery record")
		}
	}

	s.alertAsync(req, payment, string(payloadJSON), cause)

	return &VerifyPaymentResult{
		Success:           false,
		PaymentSuccessful: true,
		RecoveryNeeded:    true,
		Message: "Your payment was received, but we could not complete your registration automatically. " +
			"Our team has been alerted and will finish it manually; you will not be charged again.",
		PaymentID: req.RazorpayPaymentID,
		OrderID:   req.RazorpayOrderID,
		Amount:    payment.AmountInRupees(),
		Currency:  payment.Currency,
		Support: &SupportInfo{
			Email:        s.cfg.Support.AlertEmail,
			Phone:        s.cfg.Support.Phone,
			Instructions: "Quote your payment id when contacting support.",
		},
	}, nil
}

func (s *paymentService) recoveryPayload(legacy *LegacyRegistrationPayload, user *models.User) []byte {
	if legacy != nil {
		b, _ := json.Marshal(legacy)
		return b
	}
	if user != nil {
		b, _ := json.Marshal(map[string]string{
			"userId":         user.ID,
			"email":          user.Email,
			"registrationId": user.Registration.RegistrationID,
		})
		return b
	}
	return []byte(`{}`)
}

// adjustInventory books seats for newly purchased add-on workshops. Each
// booking is an atomic conditional increment; a full workshop is skipped
// and logged rather than overbooked.
func (s *paymentService) adjustInventory(db *gorm.DB, user *models.User, workshopIDs []string, req *VerifyPaymentRequest) {
	changed := false

	for _, id := range workshopIDs {
		if user.HasWorkshop(id) {
			continue
		}

		if err := s.workshopRepo.BookSeat(db, id); err != nil {
			logger.Warn("workshop booking skipped",
				"workshop_id", id,
				"registration_id", user.Registration.RegistrationID,
				"reason", err.Error(),
			)
			if _, auditErr := s.audit.Append(db, AuditEntry{
				Actor:        SystemActor,
				Action:       models.AuditActionWorkshopSkipped,
				ResourceType: "workshop",
				ResourceID:   id,
				IPAddress:    req.IPAddress,
				UserAgent:    req.UserAgent,
				Description:  fmt.Sprintf("booking for %s skipped: %v", user.Registration.RegistrationID, err),
			}); auditErr != nil {
				logger.WithError(auditErr).Error("failed to audit skipped booking")
			}
			continue
		}

		user.Registration.Workshops = append(user.Registration.Workshops, id)
		changed = true

		if _, err := s.audit.Append(db, AuditEntry{
			Actor:        SystemActor,
			Action:       models.AuditActionWorkshopBooked,
			ResourceType: "workshop",
			ResourceID:   id,
			ResourceName: user.Registration.RegistrationID,
			IPAddress:    req.IPAddress,
			UserAgent:    req.UserAgent,
		}); err != nil {
			logger.WithError(err).Error("failed to audit seat booking")
		}
	}

	if changed {
		if err := s.userRepo.Save(db, user); err != nil {
			logger.WithError(err).Error("failed to persist add-on workshop selection",
				"registration_id", user.Registration.RegistrationID)
		}
	}
}

func (s *paymentService) recordCompletion(db *gorm.DB, req *VerifyPaymentRequest, user *models.User, record *models.PaymentRecord, attempt *models.PaymentAttempt) {
	if _, err := s.audit.Append(db, AuditEntry{
		Actor:        SystemActor,
		Action:       models.AuditActionPaymentCompleted,
		ResourceType: "payment_record",
		ResourceID:   record.ID,
		ResourceName: user.Registration.RegistrationID,
		Changes: map[string]interface{}{
			"status": map[string]string{"after": string(user.Registration.Status)},
			"amount": record.Amount.Total,
		},
		IPAddress:   req.IPAddress,
		UserAgent:   req.UserAgent,
		Description: fmt.Sprintf("payment %s completed for %s", req.RazorpayPaymentID, user.Registration.RegistrationID),
	}); err != nil {
		logger.WithError(err).Error("failed to audit payment completion")
	}

	if attempt != nil {
		if err := s.attempts.MarkSuccess(db, attempt.ID, req.RazorpayPaymentID, req.RazorpaySignature); err != nil {
			logger.WithError(err).Warn("failed to flip payment attempt to success", "attempt_id", attempt.ID)
		}
	}
}

func (s *paymentService) notifyAsync(user *models.User, record *models.PaymentRecord) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("confirmation email panicked", "panic", r)
			}
		}()

		err := s.mailer.SendPaymentConfirmation(email.ConfirmationData{
			ToEmail:        user.Email,
			Name:           user.Name,
			RegistrationID: user.Registration.RegistrationID,
			TransactionID:  record.RazorpayPaymentID,
			Amount:         record.Amount,
			Breakdown:      record.BreakdownDetail,
		})
		if err != nil {
			logger.WithError(err).Warn("confirmation email failed",
				"registration_id", user.Registration.RegistrationID)
		}
	}()
}

func (s *paymentService) alertAsync(req *VerifyPaymentRequest, payment *gateway.Payment, payload string, cause error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("support alert panicked", "panic", r)
			}
		}()

		err := s.mailer.SendSupportAlert(email.AlertData{
			ToEmail:           s.cfg.Support.AlertEmail,
			RazorpayPaymentID: req.RazorpayPaymentID,
			RazorpayOrderID:   req.RazorpayOrderID,
			Amount:            payment.AmountInRupees(),
			Currency:          payment.Currency,
			RegistrantPayload: payload,
			FailureReason:     cause.Error(),
		})
		if err != nil {
			logger.WithError(err).Error("support alert email failed",
				"payment_id", req.RazorpayPaymentID)
		}
	}()
}

func (s *paymentService) alreadyProcessedResult(record *models.PaymentRecord) *VerifyPaymentResult {
	return &VerifyPaymentResult{
		Success:           true,
		AlreadyProcessed:  true,
		PaymentSuccessful: true,
		Message:           "Payment has already been processed",
		PaymentID:         record.RazorpayPaymentID,
		OrderID:           record.RazorpayOrderID,
		RegistrationID:    record.RegistrationID,
		Amount:            record.Amount.Total,
		Currency:          record.Amount.Currency,
		Status:            models.RegistrationStatusPaid,
	}
}

func (s *paymentService) StatusForRegistration(db *gorm.DB, registrationID string) (*PaymentStatus, error) {
	user, err := s.userRepo.FindByRegistrationID(db, registrationID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, appErrors.NewNotFoundError("registration not found")
		}
		return nil, err
	}

	attempts, err := s.attempts.ListForRegistration(db, registrationID)
	if err != nil {
		return nil, err
	}
	records, err := s.recordRepo.ListByRegistrationID(db, registrationID)
	if err != nil {
		return nil, err
	}

	return &PaymentStatus{
		RegistrationID: registrationID,
		Status:         user.Registration.Status,
		Payment:        user.Payment,
		Attempts:       attempts,
		Records:        records,
	}, nil
}

func (s *paymentService) ListPendingPayments(db *gorm.DB) ([]models.PendingPayment, error) {
	return s.pendingRepo.ListOpen(db)
}

func (s *paymentService) ResolvePendingPayment(ctx context.Context, db *gorm.DB, pendingID string, actor Actor, notes string) (*models.User, error) {
	pending, err := s.pendingRepo.FindByID(db, pendingID)
	if err != nil {
		if errors.Is(err, repositories.ErrPendingPaymentNotFound) {
			return nil, appErrors.NewNotFoundError("pending payment not found")
		}
		return nil, err
	}
	if pending.Status != models.PendingPaymentUserCreationFailed {
		return nil, appErrors.NewBadRequestError("pending payment is already resolved")
	}

	var legacy LegacyRegistrationPayload
	if err := json.Unmarshal(pending.RegistrantPayload, &legacy); err != nil {
		return nil, appErrors.InternalError(fmt.Errorf("corrupt registrant payload: %w", err))
	}

	var user *models.User
	err = db.Transaction(func(tx *gorm.DB) error {
		created, err := s.createLegacyRegistrant(tx, &legacy)
		if err != nil {
			return err
		}

		amount, breakdown, err := s.pricing.RecalculateRegistration(tx, created, RecalcOptions{Now: time.Now()})
		if err != nil {
			return err
		}

		now := time.Now()
		created.Registration.Status = models.RegistrationStatusPaid
		created.Registration.PaymentType = models.PaymentTypeOnline
		created.Payment = models.PaymentState{
			Method:         models.PaymentMethodRazorpay,
			Status:         models.PaymentSubStatusVerified,
			Amount:         amount.Total,
			OrderID:        pending.RazorpayOrderID,
			TransactionRef: pending.RazorpayPaymentID,
			PaidAt:         &now,
		}
		if err := s.userRepo.Save(tx, created); err != nil {
			return err
		}

		record := &models.PaymentRecord{
			UserID:            created.ID,
			RegistrationID:    created.Registration.RegistrationID,
			Type:              models.RecordTypeRegistration,
			RazorpayOrderID:   pending.RazorpayOrderID,
			RazorpayPaymentID: pending.RazorpayPaymentID,
			Amount:            *amount,
			BreakdownDetail:   *breakdown,
			Status:            models.RecordStatusCompleted,
			PaymentMethod:     models.PaymentMethodRazorpay,
			TransactionAt:     pending.CreatedAt,
		}
		if err := s.recordRepo.Create(tx, record); err != nil {
			return err
		}

		if err := s.pendingRepo.MarkResolved(tx, pending.ID, actor.ID, notes); err != nil {
			return err
		}

		if _, err := s.audit.Append(tx, AuditEntry{
			Actor:        actor,
			Action:       models.AuditActionPaymentResolved,
			ResourceType: "pending_payment",
			ResourceID:   pending.ID,
			ResourceName: created.Registration.RegistrationID,
			Description:  fmt.Sprintf("recovery completed for payment %s", pending.RazorpayPaymentID),
		}); err != nil {
			return err
		}

		user = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyResolved(user, pending)

	return user, nil
}

func (s *paymentService) notifyResolved(user *models.User, pending *models.PendingPayment) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("resolution email panicked", "panic", r)
			}
		}()

		err := s.mailer.SendPaymentConfirmation(email.ConfirmationData{
			ToEmail:        user.Email,
			Name:           user.Name,
			RegistrationID: user.Registration.RegistrationID,
			TransactionID:  pending.RazorpayPaymentID,
			Amount:         models.PaymentAmount{Total: user.Payment.Amount, Currency: pending.Currency},
		})
		if err != nil {
			logger.WithError(err).Warn("resolution confirmation email failed",
				"registration_id", user.Registration.RegistrationID)
		}
	}()
}

// attemptWorkshopIDs extracts the add-on workshop ids recorded with the
// attempt's method refs.
func attemptWorkshopIDs(attempt *models.PaymentAttempt) []string {
	if len(attempt.MethodRefs) == 0 {
		return nil
	}
	var refs struct {
		WorkshopIDs []string `json:"workshopIds"`
	}
	if err := json.Unmarshal(attempt.MethodRefs, &refs); err != nil {
		return nil
	}
	return refs.WorkshopIDs
}

// isTransient reports whether a commit error is worth retrying. Business
// failures carry an *AppError or a repository sentinel; anything else is
// treated as datastore contention.
func isTransient(err error) bool {
	var appErr *appErrors.AppError
	if errors.As(err, &appErr) {
		return false
	}
	for _, sentinel := range []error{
		repositories.ErrDuplicatePaymentID,
		repositories.ErrUserNotFound,
		repositories.ErrAttemptNotFound,
		repositories.ErrWorkshopNotFound,
		repositories.ErrWorkshopFull,
		repositories.ErrCategoryPriceNotFound,
		repositories.ErrTierNotFound,
		gorm.ErrDuplicatedKey,
	} {
		if errors.Is(err, sentinel) {
			return false
		}
	}
	return true
}
