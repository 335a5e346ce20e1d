package membership

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

const membershipColumns = `id, member_id, plan_id, start_date, end_date, status, created_at, updated_at`

func (r *repository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, nil)
}

// LockMemberTx takes a row lock on the member so concurrent subscribe
// attempts for the same member serialize even when the member has no
// membership rows yet.
func (r *repository) LockMemberTx(ctx context.Context, tx *sqlx.Tx, memberID int) error {
	var id int
	err := tx.GetContext(ctx, &id, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, memberID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("member %d not found", memberID)
	}
	return err
}

// ActiveExistsTx answers whether the member holds a membership that
// resolves active as of the given date. The check is on dates and the
// sticky cancelled flag, never the cached status value.
func (r *repository) ActiveExistsTx(ctx context.Context, tx *sqlx.Tx, memberID int, asOf time.Time) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists, `
		SELECT EXISTS(
			SELECT 1 FROM memberships
			WHERE member_id = $1
			  AND status != 'cancelled'
			  AND start_date <= $2
			  AND end_date >= $2
		)
	`, memberID, DateOnly(asOf))
	return exists, err
}

func (r *repository) InsertTx(ctx context.Context, tx *sqlx.Tx, memberID, planID int, startDate, endDate time.Time, status Status) (*Membership, error) {
	m := &Membership{}
	err := tx.QueryRowxContext(ctx, `
		INSERT INTO memberships (member_id, plan_id, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+membershipColumns+`
	`, memberID, planID, DateOnly(startDate), DateOnly(endDate), status).StructScan(m)
	return m, err
}

func (r *repository) GetByID(ctx context.Context, id int) (*Membership, error) {
	m := &Membership{}
	err := r.db.GetContext(ctx, m, `
		SELECT `+membershipColumns+`
		FROM memberships
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("membership %d not found", id)
	}
	return m, err
}

func (r *repository) ListByMember(ctx context.Context, memberID int) ([]Membership, error) {
	memberships := []Membership{}
	err := r.db.SelectContext(ctx, &memberships, `
		SELECT `+membershipColumns+`
		FROM memberships
		WHERE member_id = $1
		ORDER BY start_date DESC
	`, memberID)
	return memberships, err
}

// CurrentForMember returns the membership covering asOf, or the next
// pending one, newest window first. sql.ErrNoRows maps to NotFound.
func (r *repository) CurrentForMember(ctx context.Context, memberID int, asOf time.Time) (*Membership, error) {
	m := &Membership{}
	err := r.db.GetContext(ctx, m, `
		SELECT `+membershipColumns+`
		FROM memberships
		WHERE member_id = $1
		  AND status != 'cancelled'
		  AND end_date >= $2
		ORDER BY start_date ASC
		LIMIT 1
	`, memberID, DateOnly(asOf))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("no current membership for member %d", memberID)
	}
	return m, err
}

func (r *repository) Cancel(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE memberships
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status != 'cancelled'
	`, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.NotFound("membership %d not found or already cancelled", id)
	}

	return nil
}

// ExpiringWithin lists resolved-active memberships ending inside the
// window, soonest first. The ordering is load-bearing for staff triage.
func (r *repository) ExpiringWithin(ctx context.Context, asOf time.Time, windowDays int) ([]MembershipWithDetails, error) {
	from := DateOnly(asOf)
	to := from.AddDate(0, 0, windowDays)

	memberships := []MembershipWithDetails{}
	err := r.db.SelectContext(ctx, &memberships, `
		SELECT m.id, m.member_id, m.plan_id, m.start_date, m.end_date, m.status, m.created_at, m.updated_at,
		       u.name AS member_name, p.name AS plan_name
		FROM memberships m
		JOIN users u ON u.id = m.member_id
		JOIN plans p ON p.id = m.plan_id
		WHERE m.status != 'cancelled'
		  AND m.start_date <= $1
		  AND m.end_date BETWEEN $1 AND $2
		ORDER BY m.end_date ASC
	`, from, to)
	return memberships, err
}

func (r *repository) CountActiveOn(ctx context.Context, date time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM memberships
		WHERE status != 'cancelled'
		  AND start_date <= $1
		  AND end_date >= $1
	`, DateOnly(date))
	return count, err
}

// RefreshStatuses re-persists the cached status column from the date
// comparison. Reads never trust the cache; this just keeps raw table
// dumps honest.
func (r *repository) RefreshStatuses(ctx context.Context, asOf time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE memberships
		SET status = 'expired', updated_at = NOW()
		WHERE status = 'active' AND end_date < $1
	`, DateOnly(asOf))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
