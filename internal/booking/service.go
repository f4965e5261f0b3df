package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"speakbook/internal/checkout"
	"speakbook/internal/invoice"
	"speakbook/internal/logger"
	"speakbook/internal/metrics"
	"speakbook/internal/payment"
	"speakbook/internal/provider"
	"speakbook/internal/slot"
	"speakbook/internal/sms"

	"github.com/google/uuid"
)

type Service interface {
	Checkout(ctx context.Context, clientID, slotID int) (*CheckoutResult, error)
	VerifyPayment(ctx context.Context, clientID int, req VerifyRequest) (*Booking, error)
	CancelBooking(ctx context.Context, clientID int, bookingID uuid.UUID) (*Booking, error)
	ListMyBookings(ctx context.Context, clientID int) ([]BookingWithDetails, error)
	Invoice(ctx context.Context, clientID int, bookingID uuid.UUID) (*Invoice, error)
	ClientDashboard(ctx context.Context, clientID int) (*ClientDashboard, error)
	ProviderDashboard(ctx context.Context, userID int) (*ProviderDashboard, error)
	AdminList(ctx context.Context) ([]BookingWithDetails, error)
	Stats(ctx context.Context, from, to time.Time) (*Stats, error)
}

// Notifier is the mail side of booking notifications.
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, to, name, providerName, bookingID string, when time.Time) error
	SendCancellation(ctx context.Context, to, name, providerName, bookingID string, when time.Time) error
}

type service struct {
	repo      Repository
	slots     slot.Repository
	providers provider.Service
	checkouts checkout.Store
	gateway   payment.Gateway
	invoices  invoice.Renderer
	mailer    Notifier
	texter    sms.Sender
	now       func() time.Time
}

func NewService(
	repo Repository,
	slots slot.Repository,
	providers provider.Service,
	checkouts checkout.Store,
	gateway payment.Gateway,
	invoices invoice.Renderer,
	mailer Notifier,
	texter sms.Sender,
) Service {
	return &service{
		repo:      repo,
		slots:     slots,
		providers: providers,
		checkouts: checkouts,
		gateway:   gateway,
		invoices:  invoices,
		mailer:    mailer,
		texter:    texter,
		now:       time.Now,
	}
}

// Checkout opens a gateway order for an open slot and remembers the slot
// server-side. Neither the slot nor the ledger change here.
func (s *service) Checkout(ctx context.Context, clientID, slotID int) (*CheckoutResult, error) {
	target, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, slot.ErrSlotNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	if !target.ProviderApproved {
		return nil, ErrSlotNotFound
	}
	if !target.Open() {
		return nil, ErrSlotBooked
	}
	if target.Started(s.now()) {
		return nil, ErrSlotStarted
	}

	amount := minorUnits(Price)
	receipt := fmt.Sprintf("slot-%d-client-%d", target.ID, clientID)
	order, err := s.gateway.CreateOrder(ctx, amount, Currency, receipt)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	pending := checkout.Pending{
		ClientID:  clientID,
		SlotID:    target.ID,
		OrderID:   order.ID,
		Amount:    amount,
		Currency:  Currency,
		Gateway:   s.gateway.Name(),
		CreatedAt: s.now(),
	}
	if err := s.checkouts.Save(ctx, pending); err != nil {
		return nil, err
	}

	metrics.RecordCheckout(s.gateway.Name())
	logger.Info("checkout opened", "client_id", clientID, "slot_id", target.ID, "order_id", order.ID)

	return &CheckoutResult{
		OrderID:      order.ID,
		Amount:       amount,
		Currency:     Currency,
		Gateway:      s.gateway.Name(),
		Key:          s.gateway.PublicKey(),
		ClientSecret: order.ClientSecret,
		Slot:         *target,
	}, nil
}

// VerifyPayment commits the slot held in the client's pending checkout.
// The slot row is locked for the whole commit, so concurrent verifications
// for one slot serialize and all but the first see it booked.
func (s *service) VerifyPayment(ctx context.Context, clientID int, req VerifyRequest) (*Booking, error) {
	pending, err := s.checkouts.Get(ctx, clientID)
	if err != nil {
		if errors.Is(err, checkout.ErrNoPendingCheckout) {
			return nil, ErrNoPendingCheckout
		}
		return nil, err
	}

	if req.OrderID != pending.OrderID || pending.Gateway != s.gateway.Name() {
		metrics.RecordBooking("signature_invalid", s.gateway.Name())
		return nil, ErrSignatureInvalid
	}

	consumedBy, err := s.checkouts.ConsumedBy(ctx, pending.OrderID)
	if err != nil {
		return nil, err
	}
	if consumedBy != "" {
		metrics.RecordBooking("conflict", s.gateway.Name())
		logger.Info("checkout already committed", "client_id", clientID, "order_id", pending.OrderID, "booking_id", consumedBy)
		return nil, ErrSlotBooked
	}

	if err := s.gateway.VerifySignature(ctx, req.PaymentID, req.OrderID, req.Signature); err != nil {
		if errors.Is(err, payment.ErrSignatureInvalid) {
			metrics.RecordBooking("signature_invalid", s.gateway.Name())
			logger.Warn("payment signature rejected", "client_id", clientID, "order_id", req.OrderID)
			return nil, ErrSignatureInvalid
		}
		return nil, fmt.Errorf("verify payment: %w", err)
	}

	target, err := s.slots.GetByID(ctx, pending.SlotID)
	if err != nil {
		if errors.Is(err, slot.ErrSlotNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	contact, err := s.repo.GetContact(ctx, clientID)
	if err != nil {
		return nil, err
	}

	b := &Booking{
		BookingID:       uuid.New(),
		ClientID:        clientID,
		ProviderID:      target.ProviderID,
		SlotID:          target.ID,
		Amount:          Price,
		Currency:        Currency,
		DurationMinutes: DurationMinutes,
		PaymentGateway:  s.gateway.Name(),
		PaymentID:       req.PaymentID,
		OrderID:         req.OrderID,
	}

	err = s.repo.WithTx(ctx, func(tx Tx) error {
		locked, err := tx.LockSlot(ctx, target.ID)
		if err != nil {
			return err
		}
		if !locked.Open() {
			return ErrSlotBooked
		}

		if err := tx.CreateBooking(ctx, b); err != nil {
			return err
		}

		doc, err := s.invoices.Render(invoice.Data{
			BookingID:       b.BookingID.String(),
			ClientName:      contact.Name,
			ProviderName:    target.ProviderName,
			SessionStart:    locked.StartTime,
			DurationMinutes: b.DurationMinutes,
			Amount:          b.Amount,
			Currency:        b.Currency,
			IssuedAt:        b.CreatedAt,
		})
		if err != nil {
			return err
		}
		if err := tx.AttachInvoice(ctx, b, invoice.FileName(b.BookingID.String()), doc); err != nil {
			return err
		}

		return tx.SetSlotBooked(ctx, target.ID, true)
	})
	if err != nil {
		s.recordVerifyFailure(err, clientID, target.ID, req)
		return nil, err
	}

	if err := s.checkouts.MarkConsumed(ctx, pending.OrderID, b.BookingID.String()); err != nil {
		logger.WithError(err).Warn("failed to mark checkout consumed", "client_id", clientID, "order_id", pending.OrderID)
	}

	metrics.RecordBooking("success", s.gateway.Name())
	logger.Info("booking committed", "booking_id", b.BookingID.String(), "slot_id", target.ID, "client_id", clientID)

	s.notifyBooked(ctx, contact, target.ProviderName, b, target.StartTime)
	return b, nil
}

// recordVerifyFailure runs after the gateway accepted the payment, so every
// path logs the payment for reconciliation.
func (s *service) recordVerifyFailure(err error, clientID, slotID int, req VerifyRequest) {
	fields := []any{
		"client_id", clientID,
		"slot_id", slotID,
		"gateway", s.gateway.Name(),
		"payment_id", req.PaymentID,
		"order_id", req.OrderID,
	}
	switch {
	case errors.Is(err, ErrIntegrityViolation):
		metrics.RecordBooking("integrity_violation", s.gateway.Name())
		logger.WithError(err).Error("booking integrity violation", fields...)
	case errors.Is(err, ErrConflict):
		metrics.RecordBooking("conflict", s.gateway.Name())
		logger.Warn("captured payment for a slot already taken, needs manual refund", fields...)
	default:
		metrics.RecordBooking("failed", s.gateway.Name())
		logger.WithError(err).Error("booking commit failed", fields...)
	}
}

// CancelBooking refunds and releases a booking in one transaction. A
// refund failure aborts the whole cancellation.
func (s *service) CancelBooking(ctx context.Context, clientID int, bookingID uuid.UUID) (*Booking, error) {
	var cancelled *Booking

	err := s.repo.WithTx(ctx, func(tx Tx) error {
		b, err := tx.LockClientBooking(ctx, bookingID, clientID)
		if err != nil {
			return err
		}
		if b.IsCancelled {
			return ErrAlreadyCancelled
		}

		if _, err := tx.LockSlot(ctx, b.SlotID); err != nil {
			return err
		}

		if b.PaymentGateway != s.gateway.Name() {
			return fmt.Errorf("%w: booking paid through %s", ErrRefundFailed, b.PaymentGateway)
		}
		if err := s.gateway.Refund(ctx, b.PaymentID, minorUnits(b.Amount)); err != nil {
			return fmt.Errorf("%w: %v", ErrRefundFailed, err)
		}

		if err := tx.MarkCancelled(ctx, b.ID); err != nil {
			return err
		}
		if err := tx.SetSlotBooked(ctx, b.SlotID, false); err != nil {
			return err
		}

		b.IsCancelled = true
		b.IsRefunded = true
		cancelled = b
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrRefundFailed):
			metrics.RecordBookingCancellation("refund_failed")
			logger.WithError(err).Error("refund failed, cancellation rolled back", "booking_id", bookingID.String())
		case errors.Is(err, ErrConflict):
			metrics.RecordBookingCancellation("conflict")
		case errors.Is(err, ErrNotFound):
			metrics.RecordBookingCancellation("not_found")
		default:
			metrics.RecordBookingCancellation("failed")
			logger.WithError(err).Error("cancellation failed", "booking_id", bookingID.String())
		}
		return nil, err
	}

	metrics.RecordBookingCancellation("success")
	logger.Info("booking cancelled", "booking_id", bookingID.String(), "client_id", clientID)

	s.notifyCancelled(ctx, clientID, cancelled)
	return cancelled, nil
}

// Notifications never fail the request that triggered them.
func (s *service) notifyBooked(ctx context.Context, contact *Contact, providerName string, b *Booking, when time.Time) {
	id := b.BookingID.String()
	if err := s.mailer.SendBookingConfirmation(ctx, contact.Email, contact.Name, providerName, id, when); err != nil {
		logger.WithError(err).Warn("failed to queue booking confirmation", "booking_id", id)
	}
	if contact.Phone == "" {
		return
	}
	body := fmt.Sprintf("SpeakBook: session with %s on %s confirmed. Booking %s",
		providerName, when.Format("Jan 2, 3:04 PM MST"), id)
	if err := s.texter.Send(ctx, contact.Phone, body); err != nil {
		logger.WithError(err).Warn("failed to send booking SMS", "booking_id", id)
	}
}

func (s *service) notifyCancelled(ctx context.Context, clientID int, b *Booking) {
	details, err := s.repo.GetByBookingID(ctx, b.BookingID)
	if err != nil {
		logger.WithError(err).Warn("skipping cancellation email", "booking_id", b.BookingID.String())
		return
	}
	contact, err := s.repo.GetContact(ctx, clientID)
	if err != nil {
		logger.WithError(err).Warn("skipping cancellation email", "booking_id", b.BookingID.String())
		return
	}
	err = s.mailer.SendCancellation(ctx, contact.Email, contact.Name, details.ProviderName, b.BookingID.String(), details.StartTime)
	if err != nil {
		logger.WithError(err).Warn("failed to queue cancellation email", "booking_id", b.BookingID.String())
	}
}

func (s *service) ListMyBookings(ctx context.Context, clientID int) ([]BookingWithDetails, error) {
	return s.repo.ListByClient(ctx, clientID)
}

func (s *service) Invoice(ctx context.Context, clientID int, bookingID uuid.UUID) (*Invoice, error) {
	return s.repo.GetInvoice(ctx, bookingID, clientID)
}

func (s *service) ClientDashboard(ctx context.Context, clientID int) (*ClientDashboard, error) {
	providers, err := s.providers.ListApprovedWithSlots(ctx)
	if err != nil {
		return nil, err
	}

	bookings, err := s.repo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	return &ClientDashboard{
		Providers:       providers,
		Bookings:        bookings,
		Price:           Price,
		Currency:        Currency,
		DurationMinutes: DurationMinutes,
	}, nil
}

func (s *service) ProviderDashboard(ctx context.Context, userID int) (*ProviderDashboard, error) {
	p, err := s.providers.ForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, provider.ErrProviderNotFound) {
			return nil, fmt.Errorf("%w: provider profile", ErrNotFound)
		}
		return nil, err
	}

	slots, err := s.slots.ListByProvider(ctx, p.ID, s.now().Add(-slot.Duration), false)
	if err != nil {
		return nil, err
	}

	bookings, err := s.repo.ListLiveByProvider(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	return &ProviderDashboard{
		Provider:      *p,
		Slots:         slots,
		Bookings:      bookings,
		TotalSessions: len(bookings),
		TotalEarnings: len(bookings) * Price,
		Currency:      Currency,
	}, nil
}

func (s *service) AdminList(ctx context.Context) ([]BookingWithDetails, error) {
	return s.repo.ListAll(ctx)
}

func (s *service) Stats(ctx context.Context, from, to time.Time) (*Stats, error) {
	byDay, err := s.repo.StatsByDay(ctx, from, to)
	if err != nil {
		return nil, err
	}
	byProvider, err := s.repo.StatsByProvider(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return &Stats{From: from, To: to, ByDay: byDay, ByProvider: byProvider}, nil
}
