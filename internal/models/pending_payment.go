package models

import (
	"time"

	"gorm.io/datatypes"
)

// PendingPayment is the recovery record for the single most critical
// failure mode: the gateway confirmed a captured payment but the
// registrant could not be persisted. Nothing here is derivable after
// the fact, so the full intended registration payload is kept verbatim
// until support completes the registration manually.
type PendingPayment struct {
	BaseModel
	RazorpayOrderID   string `gorm:"index;not null" json:"razorpayOrderId"`
	RazorpayPaymentID string `gorm:"uniqueIndex;not null" json:"razorpayPaymentId"`

	Amount   float64 `gorm:"not null" json:"amount"`
	Currency string  `gorm:"type:varchar(10);default:'INR'" json:"currency"`

	// The legacy registration payload the caller supplied, verbatim.
	RegistrantPayload datatypes.JSON `json:"registrantPayload"`

	// The error that prevented registrant creation.
	FailureReason string `json:"failureReason"`

	Status PendingPaymentStatus `gorm:"type:varchar(50);default:'payment_successful_user_creation_failed';index" json:"status"`

	ResolvedBy      string     `json:"resolvedBy,omitempty"`
	ResolvedAt      *time.Time `json:"resolvedAt,omitempty"`
	ResolutionNotes string     `json:"resolutionNotes,omitempty"`
}
