package repositories

import (
	"errors"

	"gorm.io/gorm"

	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/models"
)

var (
	ErrPaymentRecordNotFound = errors.New("payment record not found")
	ErrDuplicatePaymentID    = errors.New("payment record already exists for this gateway payment id")
)

// PaymentRecordRepository stores the financial ledger entries. The unique
// index on razorpay_payment_id is the storage-level half of the
// idempotency guarantee: a duplicate callback that races past the
// service-level guard loses here, harmlessly.
type PaymentRecordRepository interface {
	Create(db *gorm.DB, record *models.PaymentRecord) error

	FindByGatewayPaymentID(db *gorm.DB, paymentID string) (*models.PaymentRecord, error)
	FindByGatewayOrderID(db *gorm.DB, orderID string) (*models.PaymentRecord, error)
	ListByUserID(db *gorm.DB, userID string) ([]models.PaymentRecord, error)
	ListByRegistrationID(db *gorm.DB, registrationID string) ([]models.PaymentRecord, error)

	Save(db *gorm.DB, record *models.PaymentRecord) error
}

type paymentRecordRepository struct{}

func NewPaymentRecordRepository() PaymentRecordRepository {
	return &paymentRecordRepository{}
}

func (r *paymentRecordRepository) Create(db *gorm.DB, record *models.PaymentRecord) error {
	if err := db.Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicatePaymentID
		}
		return err
	}
	return nil
}

func (r *paymentRecordRepository) FindByGatewayPaymentID(db *gorm.DB, paymentID string) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	if err := db.Where("razorpay_payment_id = ?", paymentID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *paymentRecordRepository) FindByGatewayOrderID(db *gorm.DB, orderID string) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	if err := db.Where("razorpay_order_id = ?", orderID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *paymentRecordRepository) ListByUserID(db *gorm.DB, userID string) ([]models.PaymentRecord, error) {
	var records []models.PaymentRecord
	err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&records).Error
	return records, err
}

func (r *paymentRecordRepository) ListByRegistrationID(db *gorm.DB, registrationID string) ([]models.PaymentRecord, error) {
	var records []models.PaymentRecord
	err := db.Where("registration_id = ?", registrationID).Order("created_at DESC").Find(&records).Error
	return records, err
}

func (r *paymentRecordRepository) Save(db *gorm.DB, record *models.PaymentRecord) error {
	return db.Save(record).Error
}
