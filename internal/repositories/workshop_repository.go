package repositories

import (
	"errors"

	"gorm.io/gorm"

	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/models"
)

var (
	ErrWorkshopNotFound = errors.New("workshop not found")
	ErrWorkshopFull     = errors.New("workshop is at capacity")
)

// WorkshopRepository manages the bounded seat counters. The capacity
// check and the increment are a single conditional UPDATE, so two
// concurrent bookings near capacity cannot both win the last seat.
type WorkshopRepository interface {
	Create(db *gorm.DB, workshop *models.Workshop) error
	FindByID(db *gorm.DB, id string) (*models.Workshop, error)
	FindActive(db *gorm.DB) ([]models.Workshop, error)

	// BookSeat increments booked_seats iff the workshop is active and has
	// capacity left (max_seats = 0 means unlimited). Returns
	// ErrWorkshopFull when the seat could not be granted.
	BookSeat(db *gorm.DB, id string) error

	// ReleaseSeat decrements booked_seats, never below zero.
	ReleaseSeat(db *gorm.DB, id string) error
}

type workshopRepository struct{}

func NewWorkshopRepository() WorkshopRepository {
	return &workshopRepository{}
}

func (r *workshopRepository) Create(db *gorm.DB, workshop *models.Workshop) error {
	return db.Create(workshop).Error
}

func (r *workshopRepository) FindByID(db *gorm.DB, id string) (*models.Workshop, error) {
	var workshop models.Workshop
	if err := db.First(&workshop, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkshopNotFound
		}
		return nil, err
	}
	return &workshop, nil
}

func (r *workshopRepository) FindActive(db *gorm.DB) ([]models.Workshop, error) {
	var workshops []models.Workshop
	err := db.Where("active = ?", true).Order("name ASC").Find(&workshops).Error
	return workshops, err
}

func (r *workshopRepository) BookSeat(db *gorm.DB, id string) error {
	res := db.Model(&models.Workshop{}).
		Where("id = ? AND active = ? AND (max_seats = 0 OR booked_seats < max_seats)", id, true).
		UpdateColumn("booked_seats", gorm.Expr("booked_seats + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Distinguish a missing workshop from a full one.
		if _, err := r.FindByID(db, id); err != nil {
			return err
		}
		return ErrWorkshopFull
	}
	return nil
}

func (r *workshopRepository) ReleaseSeat(db *gorm.DB, id string) error {
	res := db.Model(&models.Workshop{}).
		Where("id = ? AND booked_seats > 0", id).
		UpdateColumn("booked_seats", gorm.Expr("booked_seats - 1"))
	if res.Error != nil {
		return res.Error
	}
	return nil
}
