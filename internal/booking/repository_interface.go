package booking

import (
	"context"
	"time"

	"speakbook/internal/slot"

	"github.com/google/uuid"
)

type Repository interface {
	// WithTx runs fn in one transaction. fn's error rolls everything back.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*BookingWithDetails, error)
	ListByClient(ctx context.Context, clientID int) ([]BookingWithDetails, error)
	ListLiveByProvider(ctx context.Context, providerID int) ([]BookingWithDetails, error)
	ListAll(ctx context.Context) ([]BookingWithDetails, error)
	GetInvoice(ctx context.Context, bookingID uuid.UUID, clientID int) (*Invoice, error)
	GetContact(ctx context.Context, clientID int) (*Contact, error)

	StatsByDay(ctx context.Context, from, to time.Time) ([]StatsByDay, error)
	StatsByProvider(ctx context.Context, from, to time.Time) ([]StatsByProvider, error)
}

// Tx is the write side. Lock methods hold row locks until the transaction ends.
type Tx interface {
	LockSlot(ctx context.Context, slotID int) (*slot.Slot, error)
	SetSlotBooked(ctx context.Context, slotID int, booked bool) error
	CreateBooking(ctx context.Context, b *Booking) error
	AttachInvoice(ctx context.Context, b *Booking, fileName string, content []byte) error
	LockClientBooking(ctx context.Context, bookingID uuid.UUID, clientID int) (*Booking, error)
	MarkCancelled(ctx context.Context, id int) error
}
