package slot

import (
	"context"
	"time"
)

type Repository interface {
	GetByID(ctx context.Context, id int) (*SlotWithProvider, error)
	ListByProvider(ctx context.Context, providerID int, from time.Time, onlyOpen bool) ([]Slot, error)
	EnsureSlots(ctx context.Context, providerID int, starts []time.Time, duration time.Duration) (int, error)
}
