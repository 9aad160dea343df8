package services

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/models"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/repositories"
)

// DeviceMeta is the request metadata captured when an attempt begins.
type DeviceMeta struct {
	IPAddress string `json:"ipAddress,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
	Platform  string `json:"platform,omitempty"`
}

// RecordAttemptInput describes a new payment attempt.
type RecordAttemptInput struct {
	RegistrationID  string
	Method          models.PaymentMethod
	Purpose         models.RecordType
	Amount          float64
	Currency        string
	RazorpayOrderID string
	Device          DeviceMeta
	MethodRefs      map[string]interface{}
}

// AttemptService is the idempotency/attempt ledger: one row per attempt,
// status only ever moves forward.
type AttemptService interface {
	RecordAttempt(db *gorm.DB, input RecordAttemptInput) (*models.PaymentAttempt, error)

	MarkProcessing(db *gorm.DB, attemptID string) error
	MarkSuccess(db *gorm.DB, attemptID, gatewayPaymentID, gatewaySignature string) error
	MarkFailed(db *gorm.DB, attemptID string) error
	MarkCancelled(db *gorm.DB, attemptID string) error

	FindByGatewayOrderID(db *gorm.DB, orderID string) (*models.PaymentAttempt, error)
	FindByIdempotencyKey(db *gorm.DB, key string) (*models.PaymentAttempt, error)
	ListForRegistration(db *gorm.DB, registrationID string) ([]models.PaymentAttempt, error)
}

type attemptService struct {
	attemptRepo repositories.AttemptRepository
}

func NewAttemptService(attemptRepo repositories.AttemptRepository) AttemptService {
	return &attemptService{attemptRepo: attemptRepo}
}

func (s *attemptService) RecordAttempt(db *gorm.DB, input RecordAttemptInput) (*models.PaymentAttempt, error) {
	currency := input.Currency
	if currency == "" {
		currency = "INR"
	}
	purpose := input.Purpose
	if purpose == "" {
		purpose = models.RecordTypeRegistration
	}

	var attempt *models.PaymentAttempt
	var lastErr error

	// Attempt numbering is max+1 and two concurrent creations can race for
	// the same number. The unique idempotency key turns that race into a
	// retriable duplicate error; numbering stays best-effort sequencing.
	for i := 0; i < 3; i++ {
		max, err := s.attemptRepo.MaxAttemptNumber(db, input.RegistrationID)
		if err != nil {
			return nil, err
		}
		number := max + 1

		attempt = &models.PaymentAttempt{
			RegistrationID:  input.RegistrationID,
			AttemptNumber:   number,
			IdempotencyKey:  models.AttemptIdempotencyKey(input.RegistrationID, number),
			Method:          input.Method,
			Purpose:         purpose,
			Amount:          input.Amount,
			Currency:        currency,
			RazorpayOrderID: input.RazorpayOrderID,
			Status:          models.AttemptStatusInitiated,
		}

		if deviceJSON, err := json.Marshal(input.Device); err == nil {
			attempt.Device = datatypes.JSON(deviceJSON)
		}
		if len(input.MethodRefs) > 0 {
			if refsJSON, err := json.Marshal(input.MethodRefs); err == nil {
				attempt.MethodRefs = datatypes.JSON(refsJSON)
			}
		}

		lastErr = s.attemptRepo.Create(db, attempt)
		if lastErr == nil {
			return attempt, nil
		}
		if lastErr != repositories.ErrDuplicateAttempt {
			return nil, lastErr
		}
	}

	return nil, lastErr
}

func (s *attemptService) MarkProcessing(db *gorm.DB, attemptID string) error {
	return s.attemptRepo.UpdateStatus(db, attemptID, models.AttemptStatusProcessing, repositories.AttemptUpdate{})
}

func (s *attemptService) MarkSuccess(db *gorm.DB, attemptID, gatewayPaymentID, gatewaySignature string) error {
	now := time.Now()
	return s.attemptRepo.UpdateStatus(db, attemptID, models.AttemptStatusSuccess, repositories.AttemptUpdate{
		RazorpayPaymentID: gatewayPaymentID,
		RazorpaySignature: gatewaySignature,
		CompletedAt:       &now,
	})
}

func (s *attemptService) MarkFailed(db *gorm.DB, attemptID string) error {
	now := time.Now()
	return s.attemptRepo.UpdateStatus(db, attemptID, models.AttemptStatusFailed, repositories.AttemptUpdate{CompletedAt: &now})
}

func (s *attemptService) MarkCancelled(db *gorm.DB, attemptID string) error {
	now := time.Now()
	return s.attemptRepo.UpdateStatus(db, attemptID, models.AttemptStatusCancelled, repositories.AttemptUpdate{CompletedAt: &now})
}

func (s *attemptService) FindByGatewayOrderID(db *gorm.DB, orderID string) (*models.PaymentAttempt, error) {
	return s.attemptRepo.FindByGatewayOrderID(db, orderID)
}

func (s *attemptService) FindByIdempotencyKey(db *gorm.DB, key string) (*models.PaymentAttempt, error) {
	return s.attemptRepo.FindByIdempotencyKey(db, key)
}

func (s *attemptService) ListForRegistration(db *gorm.DB, registrationID string) ([]models.PaymentAttempt, error) {
	return s.attemptRepo.ListByRegistrationID(db, registrationID)
}
