package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/models"
)

var (
	ErrAttemptNotFound   = errors.New("payment attempt not found")
	ErrDuplicateAttempt  = errors.New("attempt with this idempotency key already exists")
	ErrAttemptTransition = errors.New("attempt status cannot move backwards")
)

// AttemptRepository is the append-create-only ledger of payment attempts.
// Rows are never edited after reaching a terminal status except to attach
// the gateway payment id and signature on success.
type AttemptRepository interface {
	Create(db *gorm.DB, attempt *models.PaymentAttempt) error

	FindByID(db *gorm.DB, id string) (*models.PaymentAttempt, error)
	FindByGatewayOrderID(db *gorm.DB, orderID string) (*models.PaymentAttempt, error)
	FindByIdempotencyKey(db *gorm.DB, key string) (*models.PaymentAttempt, error)
	ListByRegistrationID(db *gorm.DB, registrationID string) ([]models.PaymentAttempt, error)

	// MaxAttemptNumber returns the highest attempt number recorded for a
	// registration, 0 when none exist. Callers treat max+1 as best-effort
	// sequencing; uniqueness comes from the idempotency key.
	MaxAttemptNumber(db *gorm.DB, registrationID string) (int, error)

	// UpdateStatus moves an attempt forward. Backward transitions are
	// rejected with ErrAttemptTransition.
	UpdateStatus(db *gorm.DB, id string, status models.AttemptStatus, update AttemptUpdate) error
}

// AttemptUpdate carries the optional fields attached alongside a status
// transition.
type AttemptUpdate struct {
	RazorpayPaymentID string
	RazorpaySignature string
	CompletedAt       *time.Time
}

type attemptRepository struct{}

func NewAttemptRepository() AttemptRepository {
	return &attemptRepository{}
}

func (r *attemptRepository) Create(db *gorm.DB, attempt *models.PaymentAttempt) error {
	if err := db.Create(attempt).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateAttempt
		}
		return err
	}
	return nil
}

func (r *attemptRepository) FindByID(db *gorm.DB, id string) (*models.PaymentAttempt, error) {
	var attempt models.PaymentAttempt
	if err := db.First(&attempt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) FindByGatewayOrderID(db *gorm.DB, orderID string) (*models.PaymentAttempt, error) {
	var attempt models.PaymentAttempt
	if err := db.Where("razorpay_order_id = ?", orderID).First(&attempt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) FindByIdempotencyKey(db *gorm.DB, key string) (*models.PaymentAttempt, error) {
	var attempt models.PaymentAttempt
	if err := db.Where("idempotency_key = ?", key).First(&attempt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) ListByRegistrationID(db *gorm.DB, registrationID string) ([]models.PaymentAttempt, error) {
	var attempts []models.PaymentAttempt
	err := db.Where("registration_id = ?", registrationID).
		Order("attempt_number ASC").
		Find(&attempts).Error
	return attempts, err
}

func (r *attemptRepository) MaxAttemptNumber(db *gorm.DB, registrationID string) (int, error) {
	var max int
	err := db.Model(&models.PaymentAttempt{}).
		Where("registration_id = ?", registrationID).
		Select("COALESCE(MAX(attempt_number), 0)").
		Scan(&max).Error
	return max, err
}

func (r *attemptRepository) UpdateStatus(db *gorm.DB, id string, status models.AttemptStatus, update AttemptUpdate) error {
	attempt, err := r.FindByID(db, id)
	if err != nil {
		return err
	}

	if !attempt.Status.CanTransitionTo(status) {
		return ErrAttemptTransition
	}

	fields := map[string]interface{}{"status": status}
	if update.RazorpayPaymentID != "" {
		fields["razorpay_payment_id"] = update.RazorpayPaymentID
	}
	if update.RazorpaySignature != "" {
		fields["razorpay_signature"] = update.RazorpaySignature
	}
	if update.CompletedAt != nil {
		fields["completed_at"] = update.CompletedAt
	}

	return db.Model(&models.PaymentAttempt{}).
		Where("id = ?", id).
		Updates(fields).Error
}
