package analytics

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"gymtrack/internal/apperr"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const snapshotColumns = `id, date, total_members, total_passes, total_sales_centavos, age_group, created_at, updated_at`

// Upsert is keyed on the calendar date: regenerating a report replaces
// the stored row instead of duplicating it.
func (r *repository) Upsert(ctx context.Context, date time.Time, totalMembers, totalPasses int, totalSalesCentavos int64, ageGroup *string) (*Snapshot, error) {
	s := &Snapshot{}
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO analytics_snapshots (date, total_members, total_passes, total_sales_centavos, age_group)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (date) DO UPDATE
		SET total_members = EXCLUDED.total_members,
		    total_passes = EXCLUDED.total_passes,
		    total_sales_centavos = EXCLUDED.total_sales_centavos,
		    age_group = EXCLUDED.age_group,
		    updated_at = NOW()
		RETURNING `+snapshotColumns+`
	`, date, totalMembers, totalPasses, totalSalesCentavos, ageGroup).StructScan(s)
	return s, err
}

func (r *repository) GetByDate(ctx context.Context, date time.Time) (*Snapshot, error) {
	s := &Snapshot{}
	err := r.db.GetContext(ctx, s, `
		SELECT `+snapshotColumns+`
		FROM analytics_snapshots
		WHERE date = $1::date
	`, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("no snapshot for %s", date.Format("2006-01-02"))
	}
	return s, err
}

func (r *repository) ListRecent(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 || limit > 365 {
		limit = 30
	}

	snapshots := []Snapshot{}
	err := r.db.SelectContext(ctx, &snapshots, `
		SELECT `+snapshotColumns+`
		FROM analytics_snapshots
		ORDER BY date DESC
		LIMIT $1
	`, limit)
	return snapshots, err
}

// ActiveMemberBirthdates feeds the age-group tag: birthdates of
// members holding a resolved-active membership on the date.
func (r *repository) ActiveMemberBirthdates(ctx context.Context, date time.Time) ([]*time.Time, error) {
	birthdates := []*time.Time{}
	err := r.db.SelectContext(ctx, &birthdates, `
		SELECT u.birthdate
		FROM users u
		JOIN memberships m ON m.member_id = u.id
		WHERE m.status != 'cancelled'
		  AND m.start_date <= $1::date
		  AND m.end_date >= $1::date
	`, date)
	return birthdates, err
}
