package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
)

// UserRepository handles registrant accounts. Repositories are stateless:
// callers pass the *gorm.DB (pool or transaction) per call so the
// orchestrator can run several repositories inside one transaction.
type UserRepository interface {
	Create(db *gorm.DB, user *models.User) error
	FindByID(db *gorm.DB, id string) (*models.User, error)
	FindByEmail(db *gorm.DB, email string) (*models.User, error)
	FindByRegistrationID(db *gorm.DB, registrationID string) (*models.User, error)

	// FindByPaymentOrderID resolves the registrant whose payment sub-state
	// references the given gateway order id (the pre-created pending flow).
	FindByPaymentOrderID(db *gorm.DB, orderID string) (*models.User, error)

	Save(db *gorm.DB, user *models.User) error

	// NextRegistrationID atomically allocates the next human-readable
	// registration id, e.g. ORG2026-042.
	NextRegistrationID(db *gorm.DB, code string, year int) (string, error)
}

type userRepository struct{}

func NewUserRepository() UserRepository {
	return &userRepository{}
}

func (r *userRepository) Create(db *gorm.DB, user *models.User) error {
	return db.Create(user).Error
}

func (r *userRepository) FindByID(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByRegistrationID(db *gorm.DB, registrationID string) (*models.User, error) {
	var user models.User
	if err := db.Where("registration_registration_id = ?", registrationID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByPaymentOrderID(db *gorm.DB, orderID string) (*models.User, error) {
	var user models.User
	if err := db.Where("payment_order_id = ?", orderID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Save(db *gorm.DB, user *models.User) error {
	return db.Save(user).Error
}

func (r *userRepository) NextRegistrationID(db *gorm.DB, code string, year int) (string, error) {
	name := fmt.Sprintf("registration:%s%d", code, year)

	// Upsert-increment row-locks the counter on Postgres, so concurrent
	// allocations serialize instead of handing out the same number.
	counter := models.SequenceCounter{Name: name, Value: 1}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"value": gorm.Expr("sequence_counters.value + 1")}),
	}).Create(&counter).Error
	if err != nil {
		return "", err
	}

	if err := db.First(&counter, "name = ?", name).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%d-%03d", code, year, counter.Value), nil
}
