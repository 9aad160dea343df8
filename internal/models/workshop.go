package models

import "time"

// Workshop is a bookable workshop with a bounded seat counter.
// MaxSeats == 0 means unlimited. BookedSeats is only ever changed through
// the conditional increment in the workshop repository, so it can never
// pass MaxSeats under concurrent bookings.
type Workshop struct {
	ID          string  `gorm:"primaryKey" json:"id"` // slug, e.g. "wrist-arthroscopy"
	Name        string  `gorm:"not null" json:"name"`
	Description string  `json:"description"`
	Price       float64 `gorm:"not null" json:"price"`
	MaxSeats    int     `gorm:"default:0" json:"maxSeats"`
	BookedSeats int     `gorm:"default:0" json:"bookedSeats"`
	Active      bool    `json:"active"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SeatsLeft returns the remaining capacity, or -1 for unlimited workshops.
func (w *Workshop) SeatsLeft() int {
	if w.MaxSeats == 0 {
		return -1
	}
	left := w.MaxSeats - w.BookedSeats
	if left < 0 {
		return 0
	}
	return left
}
