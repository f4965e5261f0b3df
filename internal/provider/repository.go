package provider

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrProviderNotFound = errors.New("provider not found")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const providerColumns = `id, user_id, name, description, address, is_approved, created_at`

func (r *repository) GetByID(ctx context.Context, id int) (*Provider, error) {
	var p Provider
	err := r.db.GetContext(ctx, &p, `SELECT `+providerColumns+` FROM providers WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) GetByUserID(ctx context.Context, userID int) (*Provider, error) {
	var p Provider
	err := r.db.GetContext(ctx, &p, `SELECT `+providerColumns+` FROM providers WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List returns providers ordered by name. A nil approved returns all of them.
func (r *repository) List(ctx context.Context, approved *bool) ([]Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers`
	args := []interface{}{}
	if approved != nil {
		query += ` WHERE is_approved = $1`
		args = append(args, *approved)
	}
	query += ` ORDER BY name, id`

	providers := []Provider{}
	if err := r.db.SelectContext(ctx, &providers, query, args...); err != nil {
		return nil, err
	}
	return providers, nil
}

func (r *repository) Approve(ctx context.Context, id int) (*Provider, error) {
	var p Provider
	err := r.db.GetContext(ctx, &p, `
		UPDATE providers
		SET is_approved = TRUE
		WHERE id = $1
		RETURNING `+providerColumns, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) ApprovedIDs(ctx context.Context) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids, `SELECT id FROM providers WHERE is_approved = TRUE ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return ids, nil
}
