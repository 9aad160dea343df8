package models

import "time"

// PricingTier is one time-windowed pricing tier (e.g. "Early Bird").
// Tiers are the single source of truth for registration pricing; there
// is deliberately no second hardcoded window table.
type PricingTier struct {
	ID        string    `gorm:"primaryKey" json:"id"` // slug, e.g. "early-bird"
	Name      string    `gorm:"not null" json:"name"`
	StartDate time.Time `gorm:"index" json:"startDate"`
	EndDate   time.Time `gorm:"index" json:"endDate"`

	AccompanyingPersonFee float64 `json:"accompanyingPersonFee"`

	// IsDefault marks the tier used when no window matches the current time.
	IsDefault bool `gorm:"default:false" json:"isDefault"`

	Categories []CategoryPrice `gorm:"foreignKey:TierID" json:"categories,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CategoryPrice is the base registration fee for one category within one
// tier. Looked up by (TierID, CategoryKey).
type CategoryPrice struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	TierID      string  `gorm:"uniqueIndex:idx_tier_category;not null" json:"tierId"`
	CategoryKey string  `gorm:"uniqueIndex:idx_tier_category;not null" json:"categoryKey"` // e.g. "non-issh-member"
	Label       string  `gorm:"not null" json:"label"`                                     // e.g. "Non ISSH Member"
	Amount      float64 `gorm:"not null" json:"amount"`
}

// Discount is a configured discount, either time-windowed or code-based.
type Discount struct {
	BaseModel
	Type    DiscountType `gorm:"type:varchar(20);not null" json:"type"`
	Code    string       `gorm:"index" json:"code,omitempty"` // empty for time-based discounts
	Percent float64      `gorm:"not null" json:"percent"`

	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	Active    bool       `json:"active"`
}

// ActiveAt reports whether the discount applies at the given time.
func (d *Discount) ActiveAt(now time.Time) bool {
	if !d.Active {
		return false
	}
	if d.StartDate != nil && now.Before(*d.StartDate) {
		return false
	}
	if d.EndDate != nil && now.After(*d.EndDate) {
		return false
	}
	return true
}

// SequenceCounter backs human-readable registration ids (ORG2026-NNN).
type SequenceCounter struct {
	Name  string `gorm:"primaryKey"`
	Value int64  `gorm:"not null;default:0"`
}
