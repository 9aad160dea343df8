package repositories

import (
	"gorm.io/gorm"

	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/models"
)

// AuditRepository is append-only by construction: it exposes no update or
// delete operation, and the AuditLog model's gorm hooks reject both even
// if someone reaches around the repository.
type AuditRepository interface {
	Append(db *gorm.DB, entry *models.AuditLog) error

	ListByResource(db *gorm.DB, resourceType, resourceID string) ([]models.AuditLog, error)
	ListRecent(db *gorm.DB, limit int) ([]models.AuditLog, error)
}

type auditRepository struct{}

func NewAuditRepository() AuditRepository {
	return &auditRepository{}
}

func (r *auditRepository) Append(db *gorm.DB, entry *models.AuditLog) error {
	return db.Create(entry).Error
}

func (r *auditRepository) ListByResource(db *gorm.DB, resourceType, resourceID string) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	err := db.Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *auditRepository) ListRecent(db *gorm.DB, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}
	var entries []models.AuditLog
	err := db.Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
