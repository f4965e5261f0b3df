package provider

import (
	"time"

	"speakbook/internal/slot"
)

type Provider struct {
	ID          int       `db:"id" json:"id"`
	UserID      int       `db:"user_id" json:"user_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Address     string    `db:"address" json:"address"`
	IsApproved  bool      `db:"is_approved" json:"is_approved"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type ProviderWithSlots struct {
	Provider
	Slots []slot.Slot `json:"slots"`
}
