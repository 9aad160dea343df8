package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// PaymentAttempt is one row per attempt to pay for a registration.
// Rows are append-create-only: the status field moves forward and the
// gateway identifiers are attached on success, nothing else changes.
type PaymentAttempt struct {
	BaseModel
	RegistrationID string `gorm:"not null;index" json:"registrationId"`

	// AttemptNumber is best-effort sequencing (max+1 at creation time).
	// True uniqueness is enforced by IdempotencyKey and the gateway order id.
	AttemptNumber  int    `gorm:"not null" json:"attemptNumber"`
	IdempotencyKey string `gorm:"uniqueIndex;not null" json:"idempotencyKey"`

	Method   PaymentMethod `gorm:"type:varchar(20);not null" json:"method"`
	Purpose  RecordType    `gorm:"type:varchar(20);default:'registration'" json:"purpose"`
	Amount   float64       `gorm:"not null" json:"amount"`
	Currency string        `gorm:"type:varchar(10);default:'INR'" json:"currency"`

	RazorpayOrderID   string `gorm:"index" json:"razorpayOrderId,omitempty"`
	RazorpayPaymentID string `gorm:"index" json:"razorpayPaymentId,omitempty"`
	RazorpaySignature string `json:"-"`

	// Bank transfer reference, sponsor name and similar per-method fields.
	MethodRefs datatypes.JSON `json:"methodRefs,omitempty"`

	Status AttemptStatus `gorm:"type:varchar(20);default:'initiated';index" json:"status"`

	// Device and request metadata captured when the attempt began.
	Device datatypes.JSON `json:"device,omitempty"`

	InitiatedAt time.Time  `gorm:"autoCreateTime" json:"initiatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// AttemptIdempotencyKey derives the key that prevents duplicate gateway
// order creation for the same attempt.
func AttemptIdempotencyKey(registrationID string, attemptNumber int) string {
	return fmt.Sprintf("%s:%d", registrationID, attemptNumber)
}
