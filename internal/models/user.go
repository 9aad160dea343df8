package models

import "time"

// AccompanyingPerson is one person accompanying a registrant.
// Persons below the configured exemption age are not charged.
type AccompanyingPerson struct {
	Name         string `json:"name"`
	Age          int    `json:"age"`
	Relationship string `json:"relationship"`
}

// Registration is the registration sub-state embedded in User.
type Registration struct {
	RegistrationID string             `gorm:"column:registration_id;uniqueIndex" json:"registrationId"`
	Category       string             `gorm:"column:category" json:"category"`
	Status         RegistrationStatus `gorm:"column:status;type:varchar(20);default:'pending-payment'" json:"status"`
	PaymentType    PaymentType        `gorm:"column:payment_type;type:varchar(20);default:'pending'" json:"paymentType"`

	Workshops           []string             `gorm:"column:workshops;serializer:json" json:"workshops"`
	AccompanyingPersons []AccompanyingPerson `gorm:"column:accompanying_persons;serializer:json" json:"accompanyingPersons"`

	AccommodationSelected bool    `gorm:"column:accommodation_selected" json:"accommodationSelected"`
	AccommodationTotal    float64 `gorm:"column:accommodation_total" json:"accommodationTotal"`

	RegisteredAt *time.Time `gorm:"column:registered_at" json:"registeredAt,omitempty"`
}

// PaymentState is the payment sub-state embedded in User. It tracks the
// latest payment against the registration; the immutable history lives in
// PaymentAttempt and PaymentRecord.
type PaymentState struct {
	Method         PaymentMethod    `gorm:"column:method;type:varchar(20)" json:"method"`
	Status         PaymentSubStatus `gorm:"column:status;type:varchar(20);default:'pending'" json:"status"`
	Amount         float64          `gorm:"column:amount" json:"amount"`
	OrderID        string           `gorm:"column:order_id;index" json:"orderId"`
	TransactionRef string           `gorm:"column:transaction_ref" json:"transactionRef"`
	PaidAt         *time.Time       `gorm:"column:paid_at" json:"paidAt,omitempty"`
}

// User is one registrant account: identity plus registration and payment
// sub-state. Created at registration submission, or lazily by the legacy
// reconciliation path once a payment is proven captured. Never deleted.
type User struct {
	BaseModel
	Email        string   `gorm:"uniqueIndex;not null" json:"email"`
	Name         string   `gorm:"not null" json:"name"`
	Phone        string   `json:"phone"`
	Institution  string   `json:"institution"`
	Role         UserRole `gorm:"type:varchar(20);default:'delegate'" json:"role"`
	PasswordHash string   `json:"-"`

	Registration Registration `gorm:"embedded;embeddedPrefix:registration_" json:"registration"`
	Payment      PaymentState `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`
}

// HasWorkshop reports whether a workshop id is already in the selection set.
func (u *User) HasWorkshop(workshopID string) bool {
	for _, id := range u.Registration.Workshops {
		if id == workshopID {
			return true
		}
	}
	return false
}
