package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"speakbook/internal/db"
	"speakbook/internal/slot"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type repository struct {
	db          *sqlx.DB
	lockTimeout time.Duration
}

// NewRepository bounds every row-lock wait inside WithTx by lockTimeout.
func NewRepository(db *sqlx.DB, lockTimeout time.Duration) Repository {
	return &repository{db: db, lockTimeout: lockTimeout}
}

const detailsSelect = `
	SELECT b.id, b.booking_id, b.client_id, b.provider_id, b.slot_id, b.amount, b.currency,
	       b.duration_minutes, b.payment_gateway, b.payment_id, b.order_id, b.invoice_path,
	       b.created_at, b.is_cancelled, b.is_refunded,
	       u.name AS client_name, p.name AS provider_name, s.start_time, s.end_time
	FROM bookings b
	JOIN users u ON u.id = b.client_id
	JOIN providers p ON p.id = b.provider_id
	JOIN slots s ON s.id = b.slot_id
`

func (r *repository) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if r.lockTimeout > 0 {
		// SET does not take bind parameters.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	if err := fn(&sqlTx{tx: tx}); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *repository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*BookingWithDetails, error) {
	var b BookingWithDetails
	if err := r.db.GetContext(ctx, &b, detailsSelect+` WHERE b.booking_id = $1`, bookingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *repository) ListByClient(ctx context.Context, clientID int) ([]BookingWithDetails, error) {
	bookings := []BookingWithDetails{}
	err := r.db.SelectContext(ctx, &bookings,
		detailsSelect+` WHERE b.client_id = $1 ORDER BY b.created_at DESC, b.id DESC`, clientID)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *repository) ListLiveByProvider(ctx context.Context, providerID int) ([]BookingWithDetails, error) {
	bookings := []BookingWithDetails{}
	err := r.db.SelectContext(ctx, &bookings,
		detailsSelect+` WHERE b.provider_id = $1 AND NOT b.is_cancelled ORDER BY s.start_time`, providerID)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *repository) ListAll(ctx context.Context) ([]BookingWithDetails, error) {
	bookings := []BookingWithDetails{}
	if err := r.db.SelectContext(ctx, &bookings, detailsSelect+` ORDER BY b.created_at DESC, b.id DESC`); err != nil {
		return nil, err
	}
	return bookings, nil
}

// GetInvoice only returns invoices of bookings owned by clientID.
func (r *repository) GetInvoice(ctx context.Context, bookingID uuid.UUID, clientID int) (*Invoice, error) {
	query := `
		SELECT i.file_name, i.content
		FROM invoices i
		JOIN bookings b ON b.id = i.booking_id
		WHERE b.booking_id = $1 AND b.client_id = $2
	`

	var inv Invoice
	if err := r.db.GetContext(ctx, &inv, query, bookingID, clientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *repository) GetContact(ctx context.Context, clientID int) (*Contact, error) {
	query := `
		SELECT u.name, u.email, COALESCE(cp.phone, '') AS phone
		FROM users u
		LEFT JOIN client_profiles cp ON cp.user_id = u.id
		WHERE u.id = $1
	`

	var c Contact
	if err := r.db.GetContext(ctx, &c, query, clientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) StatsByDay(ctx context.Context, from, to time.Time) ([]StatsByDay, error) {
	query := `
SELECT
  DATE(created_at) AS day,
  COUNT(*)                                        AS bookings_created,
  COUNT(*) FILTER (WHERE is_cancelled)            AS bookings_cancelled,
  COALESCE(SUM(amount) FILTER (WHERE NOT is_refunded), 0) AS revenue
FROM bookings
WHERE created_at >= $1 AND created_at < $2
GROUP BY DATE(created_at)
ORDER BY day;
`
	stats := []StatsByDay{}
	if err := r.db.SelectContext(ctx, &stats, query, from, to); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *repository) StatsByProvider(ctx context.Context, from, to time.Time) ([]StatsByProvider, error) {
	query := `
SELECT
  p.id   AS provider_id,
  p.name AS provider_name,
  COUNT(b.id)                                              AS bookings_created,
  COUNT(b.id) FILTER (WHERE b.is_cancelled)                AS bookings_cancelled,
  COALESCE(SUM(b.amount) FILTER (WHERE NOT b.is_refunded), 0) AS earnings
FROM providers p
JOIN bookings b ON b.provider_id = p.id
WHERE b.created_at >= $1 AND b.created_at < $2
GROUP BY p.id, p.name
ORDER BY p.id;
`
	stats := []StatsByProvider{}
	if err := r.db.SelectContext(ctx, &stats, query, from, to); err != nil {
		return nil, err
	}
	return stats, nil
}

type sqlTx struct {
	tx *sqlx.Tx
}

// translate maps driver errors raised under lock to the package taxonomy.
func translate(err error) error {
	switch {
	case db.IsLockTimeout(err):
		return fmt.Errorf("%w: %v", ErrLockTimeout, err)
	case db.IsUniqueViolation(err):
		return fmt.Errorf("%w: %v", ErrIntegrityViolation, err)
	}
	return err
}

func (t *sqlTx) LockSlot(ctx context.Context, slotID int) (*slot.Slot, error) {
	query := `
		SELECT s.id, s.provider_id, s.start_time, s.end_time, s.is_booked, s.created_at,
		       EXISTS (SELECT 1 FROM bookings b WHERE b.slot_id = s.id) AS has_booking
		FROM slots s
		WHERE s.id = $1
		FOR UPDATE OF s
	`

	var s slot.Slot
	if err := t.tx.GetContext(ctx, &s, query, slotID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, translate(err)
	}
	return &s, nil
}

func (t *sqlTx) SetSlotBooked(ctx context.Context, slotID int, booked bool) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE slots SET is_booked = $1 WHERE id = $2`, booked, slotID)
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSlotNotFound
	}
	return nil
}

func (t *sqlTx) CreateBooking(ctx context.Context, b *Booking) error {
	query := `
		INSERT INTO bookings (booking_id, client_id, provider_id, slot_id, amount, currency,
		                      duration_minutes, payment_gateway, payment_id, order_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	err := t.tx.QueryRowxContext(ctx, query,
		b.BookingID, b.ClientID, b.ProviderID, b.SlotID, b.Amount, b.Currency,
		b.DurationMinutes, b.PaymentGateway, b.PaymentID, b.OrderID,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return translate(err)
	}
	return nil
}

func (t *sqlTx) AttachInvoice(ctx context.Context, b *Booking, fileName string, content []byte) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO invoices (booking_id, file_name, content) VALUES ($1, $2, $3)`,
		b.ID, fileName, content,
	)
	if err != nil {
		return translate(err)
	}

	if _, err := t.tx.ExecContext(ctx, `UPDATE bookings SET invoice_path = $1 WHERE id = $2`, fileName, b.ID); err != nil {
		return translate(err)
	}
	b.InvoicePath = &fileName
	return nil
}

// LockClientBooking treats a booking of another client as missing.
func (t *sqlTx) LockClientBooking(ctx context.Context, bookingID uuid.UUID, clientID int) (*Booking, error) {
	query := `
		SELECT id, booking_id, client_id, provider_id, slot_id, amount, currency, duration_minutes,
		       payment_gateway, payment_id, order_id, invoice_path, created_at, is_cancelled, is_refunded
		FROM bookings
		WHERE booking_id = $1 AND client_id = $2
		FOR UPDATE
	`

	var b Booking
	if err := t.tx.GetContext(ctx, &b, query, bookingID, clientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, translate(err)
	}
	return &b, nil
}

func (t *sqlTx) MarkCancelled(ctx context.Context, id int) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE bookings SET is_cancelled = TRUE, is_refunded = TRUE WHERE id = $1 AND NOT is_cancelled`, id)
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyCancelled
	}
	return nil
}
