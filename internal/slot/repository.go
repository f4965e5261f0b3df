package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrSlotNotFound = errors.New("slot not found")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id int) (*SlotWithProvider, error) {
	query := `
		SELECT s.id, s.provider_id, s.start_time, s.end_time, s.is_booked, s.created_at,
		       EXISTS (SELECT 1 FROM bookings b WHERE b.slot_id = s.id) AS has_booking,
		       p.name AS provider_name, p.is_approved AS provider_approved
		FROM slots s
		JOIN providers p ON p.id = s.provider_id
		WHERE s.id = $1
	`

	var s SlotWithProvider
	err := r.db.GetContext(ctx, &s, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	return &s, nil
}

func (r *repository) ListByProvider(ctx context.Context, providerID int, from time.Time, onlyOpen bool) ([]Slot, error) {
	query := `
		SELECT s.id, s.provider_id, s.start_time, s.end_time, s.is_booked, s.created_at,
		       EXISTS (SELECT 1 FROM bookings b WHERE b.slot_id = s.id) AS has_booking
		FROM slots s
		WHERE s.provider_id = $1 AND s.start_time >= $2
	`
	if onlyOpen {
		query += ` AND s.is_booked = FALSE AND NOT EXISTS (SELECT 1 FROM bookings b WHERE b.slot_id = s.id)`
	}
	query += ` ORDER BY s.start_time`

	slots := []Slot{}
	err := r.db.SelectContext(ctx, &slots, query, providerID, from)
	if err != nil {
		return nil, err
	}

	return slots, nil
}

// EnsureSlots inserts the slots starting at starts that the provider does
// not have yet and returns how many were created. Existing slots are left
// untouched.
func (r *repository) EnsureSlots(ctx context.Context, providerID int, starts []time.Time, duration time.Duration) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	created := 0
	for _, start := range starts {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO slots (provider_id, start_time, end_time)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (provider_id, start_time) DO NOTHING`,
			providerID, start, start.Add(duration),
		)
		if err != nil {
			return 0, fmt.Errorf("insert slot %s: %w", start.Format(time.RFC3339), err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return 0, err
		}
		created += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return created, nil
}
