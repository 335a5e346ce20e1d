package plan

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"gymtrack/internal/apperr"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, name string, kind Kind, durationDays int, priceCentavos int64, description *string) (*Plan, error) {
	p := &Plan{}
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO plans (name, kind, duration_days, price_centavos, description, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING id, name, kind, duration_days, price_centavos, description, is_active, created_at, updated_at
	`, name, kind, durationDays, priceCentavos, description).StructScan(p)

	return p, err
}

func (r *repository) Update(ctx context.Context, id int, name string, durationDays int, priceCentavos int64, description *string, isActive bool) (*Plan, error) {
	p := &Plan{}
	err := r.db.QueryRowxContext(ctx, `
		UPDATE plans
		SET name = $2, duration_days = $3, price_centavos = $4, description = $5, is_active = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, kind, duration_days, price_centavos, description, is_active, created_at, updated_at
	`, id, name, durationDays, priceCentavos, description, isActive).StructScan(p)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("plan %d not found", id)
	}

	return p, err
}

func (r *repository) GetByID(ctx context.Context, id int) (*Plan, error) {
	p := &Plan{}
	err := r.db.GetContext(ctx, p, `
		SELECT id, name, kind, duration_days, price_centavos, description, is_active, created_at, updated_at
		FROM plans
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("plan %d not found", id)
	}

	return p, err
}

// GetActiveByID resolves a plan for purchase: it must exist, be of the
// expected kind, and still be offered.
func (r *repository) GetActiveByID(ctx context.Context, id int, kind Kind) (*Plan, error) {
	p := &Plan{}
	err := r.db.GetContext(ctx, p, `
		SELECT id, name, kind, duration_days, price_centavos, description, is_active, created_at, updated_at
		FROM plans
		WHERE id = $1 AND kind = $2 AND is_active = TRUE
	`, id, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("active %s plan %d not found", kind, id)
	}

	return p, err
}

func (r *repository) ListActive(ctx context.Context, kind Kind) ([]Plan, error) {
	plans := []Plan{}
	err := r.db.SelectContext(ctx, &plans, `
		SELECT id, name, kind, duration_days, price_centavos, description, is_active, created_at, updated_at
		FROM plans
		WHERE kind = $1 AND is_active = TRUE
		ORDER BY price_centavos ASC
	`, kind)
	return plans, err
}

func (r *repository) ListAll(ctx context.Context) ([]Plan, error) {
	plans := []Plan{}
	err := r.db.SelectContext(ctx, &plans, `
		SELECT id, name, kind, duration_days, price_centavos, description, is_active, created_at, updated_at
		FROM plans
		ORDER BY kind, price_centavos ASC
	`)
	return plans, err
}

func (r *repository) Deactivate(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE plans
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.NotFound("plan %d not found", id)
	}

	return nil
}
