package services

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/models"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/repositories"
)

// Actor identifies who performed an audited action. The zero value is
// used for system-initiated actions (gateway callbacks).
type Actor struct {
	ID    string
	Email string
	Role  models.UserRole
}

// SystemActor is the actor recorded for actions triggered by gateway
// callbacks rather than a logged-in user.
var SystemActor = Actor{ID: "system", Email: "system", Role: "system"}

// AuditEntry describes one action to append to the audit log.
type AuditEntry struct {
	Actor        Actor
	Action       models.AuditAction
	ResourceType string
	ResourceID   string
	ResourceName string
	Changes      interface{} // marshalled to JSON when non-nil
	IPAddress    string
	UserAgent    string
	Description  string
}

// AuditService appends immutable audit entries. There is deliberately no
// update or delete; the storage layer rejects both.
type AuditService interface {
	Append(db *gorm.DB, entry AuditEntry) (string, error)
	ListByResource(db *gorm.DB, resourceType, resourceID string) ([]models.AuditLog, error)
}

type auditService struct {
	auditRepo repositories.AuditRepository
}

func NewAuditService(auditRepo repositories.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) Append(db *gorm.DB, entry AuditEntry) (string, error) {
	log := &models.AuditLog{
		ActorID:      entry.Actor.ID,
		ActorEmail:   entry.Actor.Email,
		ActorRole:    entry.Actor.Role,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		ResourceName: entry.ResourceName,
		IPAddress:    entry.IPAddress,
		UserAgent:    entry.UserAgent,
		Description:  entry.Description,
	}

	if entry.Changes != nil {
		changesJSON, err := json.Marshal(entry.Changes)
		if err != nil {
			return "", err
		}
		log.Changes = datatypes.JSON(changesJSON)
	}

	if err := s.auditRepo.Append(db, log); err != nil {
		return "", err
	}
	return log.ID, nil
}

func (s *auditService) ListByResource(db *gorm.DB, resourceType, resourceID string) ([]models.AuditLog, error) {
	return s.auditRepo.ListByResource(db, resourceType, resourceID)
}
