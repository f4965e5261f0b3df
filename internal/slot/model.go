package slot

import "time"

const (
	Duration     = 10 * time.Minute
	DefaultCount = 48
)

type Slot struct {
	ID         int       `db:"id" json:"id"`
	ProviderID int       `db:"provider_id" json:"provider_id"`
	StartTime  time.Time `db:"start_time" json:"start_time"`
	EndTime    time.Time `db:"end_time" json:"end_time"`
	IsBooked   bool      `db:"is_booked" json:"is_booked"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`

	// HasBooking is set once any booking, cancelled or not, references the
	// slot. Such a slot is never sold again.
	HasBooking bool `db:"has_booking" json:"-"`
}

// SlotWithProvider is a slot joined with the owning provider's public fields.
type SlotWithProvider struct {
	Slot
	ProviderName     string `db:"provider_name" json:"provider_name"`
	ProviderApproved bool   `db:"provider_approved" json:"-"`
}

// Open reports whether the slot can still be sold.
func (s *Slot) Open() bool {
	return !s.IsBooked && !s.HasBooking
}

// Started reports whether the slot's window has begun at now.
func (s *Slot) Started(now time.Time) bool {
	return !s.StartTime.After(now)
}

type GenerateResponse struct {
	Providers int `json:"providers" example:"3"`
	Created   int `json:"created" example:"144"`
}
