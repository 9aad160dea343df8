package models

import (
	"math"
	"time"
)

// PaymentAmount is the recalculated amount breakdown persisted with a
// completed charge. Total must always equal the sum of its components
// minus the discount.
type PaymentAmount struct {
	Total               float64 `gorm:"column:total" json:"total"`
	Registration        float64 `gorm:"column:registration" json:"registration"`
	GST                 float64 `gorm:"column:gst" json:"gst"`
	Workshops           float64 `gorm:"column:workshops" json:"workshops"`
	AccompanyingPersons float64 `gorm:"column:accompanying_persons" json:"accompanyingPersons"`
	Accommodation       float64 `gorm:"column:accommodation" json:"accommodation"`
	Discount            float64 `gorm:"column:discount" json:"discount"`
	Currency            string  `gorm:"column:currency;type:varchar(10)" json:"currency"`
}

// Consistent reports whether Total matches the component sum within a
// rounding tolerance of half a currency unit.
func (a PaymentAmount) Consistent() bool {
	sum := a.Registration + a.GST + a.Workshops + a.AccompanyingPersons + a.Accommodation - a.Discount
	return math.Abs(a.Total-sum) < 0.5
}

// WorkshopFee is one priced workshop line in the breakdown.
type WorkshopFee struct {
	WorkshopID string  `json:"workshopId"`
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
}

// AccompanyingPersonFee is one accompanying person line in the breakdown.
// Exempt persons are listed with a zero amount.
type AccompanyingPersonFee struct {
	Name   string  `json:"name"`
	Age    int     `json:"age"`
	Exempt bool    `json:"exempt"`
	Amount float64 `json:"amount"`
}

// AppliedDiscount is one discount line in the breakdown.
type AppliedDiscount struct {
	Type    DiscountType `json:"type"`
	Code    string       `json:"code,omitempty"`
	Percent float64      `json:"percent"`
	Amount  float64      `json:"amount"`
}

// Breakdown is the structured detail behind PaymentAmount, shown on the
// confirmation and kept for audit.
type Breakdown struct {
	TierID                 string                  `json:"tierId"`
	TierName               string                  `json:"tierName"`
	RegistrationType       string                  `json:"registrationType"`
	RegistrationTypeLabel  string                  `json:"registrationTypeLabel"`
	BaseAmount             float64                 `json:"baseAmount"`
	WorkshopFees           []WorkshopFee           `json:"workshopFees"`
	AccompanyingPersonFees []AccompanyingPersonFee `json:"accompanyingPersonDetails"`
	AccommodationAmount    float64                 `json:"accommodationAmount"`
	GSTPercent             float64                 `json:"gstPercent"`
	DiscountsApplied       []AppliedDiscount       `json:"discountsApplied"`
}

// PaymentRecord is the financial ledger entry for a completed charge.
// Exactly one per successful gateway payment, enforced by the unique
// index on RazorpayPaymentID. Never deleted.
type PaymentRecord struct {
	BaseModel
	UserID         string     `gorm:"not null;index" json:"userId"`
	RegistrationID string     `gorm:"not null;index" json:"registrationId"`
	Type           RecordType `gorm:"type:varchar(20);default:'registration'" json:"type"`

	RazorpayOrderID   string `gorm:"index" json:"razorpayOrderId"`
	RazorpayPaymentID string `gorm:"uniqueIndex" json:"razorpayPaymentId"`
	RazorpaySignature string `json:"-"`

	Amount          PaymentAmount `gorm:"embedded;embeddedPrefix:amount_" json:"amount"`
	BreakdownDetail Breakdown     `gorm:"serializer:json" json:"breakdown"`

	Status        RecordStatus  `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	PaymentMethod PaymentMethod `gorm:"type:varchar(20)" json:"paymentMethod"`
	TransactionAt time.Time     `json:"transactionAt"`
}
