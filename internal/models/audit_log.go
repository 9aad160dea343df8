package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/appErrors"
)

type AuditAction string

const (
	AuditActionPaymentCompleted  AuditAction = "payment.completed"
	AuditActionPaymentFailed     AuditAction = "payment.failed"
	AuditActionPaymentRecovery   AuditAction = "payment.recovery_recorded"
	AuditActionPaymentResolved   AuditAction = "payment.recovery_resolved"
	AuditActionRegistrantCreated AuditAction = "registrant.created"
	AuditActionStatusChanged     AuditAction = "registration.status_changed"
	AuditActionWorkshopBooked    AuditAction = "workshop.seat_booked"
	AuditActionWorkshopSkipped   AuditAction = "workshop.booking_skipped"
)

// AuditLog is an immutable record of a state-changing action.
// The collection only grows: updates and deletes are rejected by the
// gorm hooks below, so no caller can rewrite history.
type AuditLog struct {
	BaseModel
	ActorID    string      `gorm:"index" json:"actorId"`
	ActorEmail string      `json:"actorEmail"`
	ActorRole  UserRole    `gorm:"type:varchar(20)" json:"actorRole"`
	Action     AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	ResourceType string `gorm:"type:varchar(50);index" json:"resourceType"`
	ResourceID   string `gorm:"index" json:"resourceId"`
	ResourceName string `json:"resourceName"`

	// Before/after change set, when the action mutated a resource.
	Changes datatypes.JSON `json:"changes,omitempty"`

	IPAddress   string `json:"ipAddress"`
	UserAgent   string `json:"userAgent"`
	Description string `json:"description"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

func (l *AuditLog) BeforeUpdate(tx *gorm.DB) error {
	return appErrors.ErrAuditImmutable
}

func (l *AuditLog) BeforeDelete(tx *gorm.DB) error {
	return appErrors.ErrAuditImmutable
}
