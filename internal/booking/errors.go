package booking

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrSignatureInvalid   = errors.New("payment verification failed")
	ErrRefundFailed       = errors.New("refund failed")
	ErrIntegrityViolation = errors.New("integrity violation")

	ErrNoPendingCheckout = fmt.Errorf("%w: no pending checkout", ErrNotFound)
	ErrSlotNotFound      = fmt.Errorf("%w: slot", ErrNotFound)
	ErrBookingNotFound   = fmt.Errorf("%w: booking", ErrNotFound)
	ErrSlotBooked        = fmt.Errorf("%w: slot already booked", ErrConflict)
	ErrSlotStarted       = fmt.Errorf("%w: slot already started", ErrConflict)
	ErrAlreadyCancelled  = fmt.Errorf("%w: booking already cancelled", ErrConflict)
	ErrLockTimeout       = fmt.Errorf("%w: row locked by another request", ErrConflict)
)
