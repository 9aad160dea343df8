package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/models"
)

var (
	ErrPendingPaymentNotFound = errors.New("pending payment not found")
)

// PendingPaymentRepository stores the recovery records for captured
// payments whose registrant could not be persisted.
type PendingPaymentRepository interface {
	Create(db *gorm.DB, pending *models.PendingPayment) error
	FindByID(db *gorm.DB, id string) (*models.PendingPayment, error)
	FindByGatewayPaymentID(db *gorm.DB, paymentID string) (*models.PendingPayment, error)
	ListOpen(db *gorm.DB) ([]models.PendingPayment, error)

	// MarkResolved closes a recovery record after support has completed
	// the registration manually.
	MarkResolved(db *gorm.DB, id, resolvedBy, notes string) error
}

type pendingPaymentRepository struct{}

func NewPendingPaymentRepository() PendingPaymentRepository {
	return &pendingPaymentRepository{}
}

func (r *pendingPaymentRepository) Create(db *gorm.DB, pending *models.PendingPayment) error {
	return db.Create(pending).Error
}

func (r *pendingPaymentRepository) FindByID(db *gorm.DB, id string) (*models.PendingPayment, error) {
	var pending models.PendingPayment
	if err := db.First(&pending, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPendingPaymentNotFound
		}
		return nil, err
	}
	return &pending, nil
}

func (r *pendingPaymentRepository) FindByGatewayPaymentID(db *gorm.DB, paymentID string) (*models.PendingPayment, error) {
	var pending models.PendingPayment
	if err := db.Where("razorpay_payment_id = ?", paymentID).First(&pending).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPendingPaymentNotFound
		}
		return nil, err
	}
	return &pending, nil
}

func (r *pendingPaymentRepository) ListOpen(db *gorm.DB) ([]models.PendingPayment, error) {
	var pendings []models.PendingPayment
	err := db.Where("status = ?", models.PendingPaymentUserCreationFailed).
		Order("created_at ASC").
		Find(&pendings).Error
	return pendings, err
}

func (r *pendingPaymentRepository) MarkResolved(db *gorm.DB, id, resolvedBy, notes string) error {
	now := time.Now()
	res := db.Model(&models.PendingPayment{}).
		Where("id = ? AND status = ?", id, models.PendingPaymentUserCreationFailed).
		Updates(map[string]interface{}{
			"status":           models.PendingPaymentResolved,
			"resolved_by":      resolvedBy,
			"resolved_at":      &now,
			"resolution_notes": notes,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPendingPaymentNotFound
	}
	return nil
}
