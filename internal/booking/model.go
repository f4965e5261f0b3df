package booking

import (
	"time"

	"speakbook/internal/provider"
	"speakbook/internal/slot"

	"github.com/google/uuid"
)

// Every session is sold at one price for one length.
const (
	Price           = 30
	Currency        = "INR"
	DurationMinutes = 10
)

// minorUnits converts a major-unit amount to what gateways charge in.
func minorUnits(amount int) int64 {
	return int64(amount) * 100
}

type Booking struct {
	ID              int       `db:"id" json:"-"`
	BookingID       uuid.UUID `db:"booking_id" json:"booking_id"`
	ClientID        int       `db:"client_id" json:"client_id"`
	ProviderID      int       `db:"provider_id" json:"provider_id"`
	SlotID          int       `db:"slot_id" json:"slot_id"`
	Amount          int       `db:"amount" json:"amount"`
	Currency        string    `db:"currency" json:"currency"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	PaymentGateway  string    `db:"payment_gateway" json:"payment_gateway"`
	PaymentID       string    `db:"payment_id" json:"payment_id"`
	OrderID         string    `db:"order_id" json:"order_id"`
	InvoicePath     *string   `db:"invoice_path" json:"invoice_path,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	IsCancelled     bool      `db:"is_cancelled" json:"is_cancelled"`
	IsRefunded      bool      `db:"is_refunded" json:"is_refunded"`
}

type BookingWithDetails struct {
	Booking
	ClientName   string    `db:"client_name" json:"client_name"`
	ProviderName string    `db:"provider_name" json:"provider_name"`
	StartTime    time.Time `db:"start_time" json:"start_time"`
	EndTime      time.Time `db:"end_time" json:"end_time"`
}

// Contact is how a client is reached after a booking changes.
type Contact struct {
	Name  string `db:"name"`
	Email string `db:"email"`
	Phone string `db:"phone"`
}

type Invoice struct {
	FileName string `db:"file_name"`
	Content  []byte `db:"content"`
}

type VerifyRequest struct {
	PaymentID string `json:"payment_id" binding:"required"`
	OrderID   string `json:"order_id" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

type CheckoutResult struct {
	OrderID      string                `json:"order_id"`
	Amount       int64                 `json:"amount"`
	Currency     string                `json:"currency"`
	Gateway      string                `json:"gateway"`
	Key          string                `json:"key"`
	ClientSecret string                `json:"client_secret,omitempty"`
	Slot         slot.SlotWithProvider `json:"slot"`
}

type ClientDashboard struct {
	Providers       []provider.ProviderWithSlots `json:"providers"`
	Bookings        []BookingWithDetails         `json:"bookings"`
	Price           int                          `json:"price"`
	Currency        string                       `json:"currency"`
	DurationMinutes int                          `json:"duration_minutes"`
}

type ProviderDashboard struct {
	Provider      provider.Provider    `json:"provider"`
	Slots         []slot.Slot          `json:"slots"`
	Bookings      []BookingWithDetails `json:"bookings"`
	TotalSessions int                  `json:"total_sessions"`
	TotalEarnings int                  `json:"total_earnings"`
	Currency      string               `json:"currency"`
}

type StatsByDay struct {
	Day               time.Time `db:"day" json:"day"`
	BookingsCreated   int       `db:"bookings_created" json:"bookings_created"`
	BookingsCancelled int       `db:"bookings_cancelled" json:"bookings_cancelled"`
	Revenue           int       `db:"revenue" json:"revenue"`
}

type StatsByProvider struct {
	ProviderID        int    `db:"provider_id" json:"provider_id"`
	ProviderName      string `db:"provider_name" json:"provider_name"`
	BookingsCreated   int    `db:"bookings_created" json:"bookings_created"`
	BookingsCancelled int    `db:"bookings_cancelled" json:"bookings_cancelled"`
	Earnings          int    `db:"earnings" json:"earnings"`
}

type Stats struct {
	From       time.Time         `json:"from"`
	To         time.Time         `json:"to"`
	ByDay      []StatsByDay      `json:"by_day"`
	ByProvider []StatsByProvider `json:"by_provider"`
}
