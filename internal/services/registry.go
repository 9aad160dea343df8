package services

import (
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/email"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	AuthService     AuthService
	PaymentService  PaymentService
	PricingService  PricingService
	AttemptService  AttemptService
	WorkshopService WorkshopService
	AuditService    AuditService
	EmailService    email.Provider
}
