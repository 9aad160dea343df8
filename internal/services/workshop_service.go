package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/appErrors"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/logger"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/models"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/repositories"
)

// WorkshopSummary is the public catalog view of one workshop.
type WorkshopSummary struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	MaxSeats  int     `json:"maxSeats"`
	SeatsLeft int     `json:"seatsLeft"`
	SoldOut   bool    `json:"soldOut"`
}

// BookingOutcome reports which workshops got seats and which were full.
type BookingOutcome struct {
	Booked  []string `json:"booked"`
	Skipped []string `json:"skipped"`
}

type WorkshopService interface {
	ListActive(db *gorm.DB) ([]WorkshopSummary, error)

	// BookForRegistration books a seat in each requested workshop at
	// registration time. A full workshop is skipped, not an error.
	BookForRegistration(db *gorm.DB, registrationID string, workshopIDs []string) (*BookingOutcome, error)

	// ReleaseForRegistration returns seats when a registration is
	// cancelled before payment.
	ReleaseForRegistration(db *gorm.DB, registrationID string, workshopIDs []string) error
}

type workshopService struct {
	workshopRepo repositories.WorkshopRepository
	audit        AuditService
}

func NewWorkshopService(workshopRepo repositories.WorkshopRepository, audit AuditService) WorkshopService {
	return &workshopService{workshopRepo: workshopRepo, audit: audit}
}

func (s *workshopService) ListActive(db *gorm.DB) ([]WorkshopSummary, error) {
	workshops, err := s.workshopRepo.FindActive(db)
	if err != nil {
		return nil, err
	}

	summaries := make([]WorkshopSummary, 0, len(workshops))
	for _, w := range workshops {
		left := w.SeatsLeft()
		summaries = append(summaries, WorkshopSummary{
			ID:        w.ID,
			Name:      w.Name,
			Price:     w.Price,
			MaxSeats:  w.MaxSeats,
			SeatsLeft: left,
			SoldOut:   w.MaxSeats > 0 && left == 0,
		})
	}
	return summaries, nil
}

func (s *workshopService) BookForRegistration(db *gorm.DB, registrationID string, workshopIDs []string) (*BookingOutcome, error) {
	outcome := &BookingOutcome{Booked: []string{}, Skipped: []string{}}

	for _, id := range workshopIDs {
		err := s.workshopRepo.BookSeat(db, id)
		if err == nil {
			outcome.Booked = append(outcome.Booked, id)
			if _, auditErr := s.audit.Append(db, AuditEntry{
				Actor:        SystemActor,
				Action:       models.AuditActionWorkshopBooked,
				ResourceType: "workshop",
				ResourceID:   id,
				ResourceName: registrationID,
			}); auditErr != nil {
				logger.WithError(auditErr).Error("failed to audit seat booking")
			}
			continue
		}

		if errors.Is(err, repositories.ErrWorkshopNotFound) {
			// Roll back what this call already booked; an unknown id is
			// a client error, not a capacity condition.
			for _, booked := range outcome.Booked {
				if releaseErr := s.workshopRepo.ReleaseSeat(db, booked); releaseErr != nil {
					logger.WithError(releaseErr).Error("failed to release seat after bad request", "workshop_id", booked)
				}
			}
			return nil, appErrors.ErrWorkshopNotFound.WithDetails(map[string]string{"workshopId": id})
		}
		if errors.Is(err, repositories.ErrWorkshopFull) {
			outcome.Skipped = append(outcome.Skipped, id)
			logger.Warn("workshop full at registration time", "workshop_id", id, "registration_id", registrationID)
			if _, auditErr := s.audit.Append(db, AuditEntry{
				Actor:        SystemActor,
				Action:       models.AuditActionWorkshopSkipped,
				ResourceType: "workshop",
				ResourceID:   id,
				ResourceName: registrationID,
				Description:  fmt.Sprintf("no seats left for %s", registrationID),
			}); auditErr != nil {
				logger.WithError(auditErr).Error("failed to audit skipped booking")
			}
			continue
		}
		return nil, err
	}

	return outcome, nil
}

func (s *workshopService) ReleaseForRegistration(db *gorm.DB, registrationID string, workshopIDs []string) error {
	for _, id := range workshopIDs {
		if err := s.workshopRepo.ReleaseSeat(db, id); err != nil {
			if errors.Is(err, repositories.ErrWorkshopNotFound) {
				continue
			}
			return err
		}
		logger.Info("workshop seat released", "workshop_id", id, "registration_id", registrationID)
	}
	return nil
}
