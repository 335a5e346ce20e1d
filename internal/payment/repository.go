package payment

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"gymtrack/internal/apperr"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const paymentColumns = `id, membership_id, member_id, amount_centavos, method, payment_date, reference_no, notes, created_at`

const insertMemberPaymentQuery = `
		INSERT INTO payments (membership_id, member_id, amount_centavos, method, payment_date, reference_no, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + paymentColumns

// mapFKViolation turns a foreign key violation into NotFound so a
// payment referencing a nonexistent membership or member reads as a
// bad reference, not a storage failure.
func mapFKViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return apperr.NotFound("membership or member does not exist")
	}
	return err
}

// InsertMemberPaymentTx records the payment inside the caller's
// transaction so membership creation and its first payment commit or
// roll back together.
func (r *repository) InsertMemberPaymentTx(ctx context.Context, tx *sqlx.Tx, membershipID, memberID int, amountCentavos int64, method Method, referenceNo, notes *string, paymentDate time.Time) (*Payment, error) {
	p := &Payment{}
	err := tx.QueryRowxContext(ctx, insertMemberPaymentQuery,
		membershipID, memberID, amountCentavos, method, paymentDate, referenceNo, notes).StructScan(p)
	if err != nil {
		return nil, mapFKViolation(err)
	}
	return p, nil
}

func (r *repository) InsertMemberPayment(ctx context.Context, membershipID, memberID int, amountCentavos int64, method Method, referenceNo, notes *string, paymentDate time.Time) (*Payment, error) {
	p := &Payment{}
	err := r.db.QueryRowxContext(ctx, insertMemberPaymentQuery,
		membershipID, memberID, amountCentavos, method, paymentDate, referenceNo, notes).StructScan(p)
	if err != nil {
		return nil, mapFKViolation(err)
	}
	return p, nil
}

func (r *repository) InsertWalkInPayment(ctx context.Context, planID int, customerName, mobileNo *string, amountCentavos int64, method Method, referenceNo, notes *string, paymentDate time.Time) (*WalkInPayment, error) {
	w := &WalkInPayment{}
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO walk_in_payments (plan_id, customer_name, mobile_no, amount_centavos, method, payment_date, reference_no, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, plan_id, customer_name, mobile_no, amount_centavos, method, payment_date, reference_no, notes, created_at
	`, planID, customerName, mobileNo, amountCentavos, method, paymentDate, referenceNo, notes).StructScan(w)
	return w, err
}

// RevenueFor sums matching rows over calendar dates; no rows means
// zero, never an error.
func (r *repository) RevenueFor(ctx context.Context, from, to time.Time, stream Stream) (int64, error) {
	var memberTotal, walkinTotal int64

	if stream == StreamMember || stream == StreamBoth {
		err := r.db.GetContext(ctx, &memberTotal, `
			SELECT COALESCE(SUM(amount_centavos), 0)
			FROM payments
			WHERE payment_date::date BETWEEN $1::date AND $2::date
		`, from, to)
		if err != nil {
			return 0, err
		}
	}

	if stream == StreamWalkIn || stream == StreamBoth {
		err := r.db.GetContext(ctx, &walkinTotal, `
			SELECT COALESCE(SUM(amount_centavos), 0)
			FROM walk_in_payments
			WHERE payment_date::date BETWEEN $1::date AND $2::date
		`, from, to)
		if err != nil {
			return 0, err
		}
	}

	return memberTotal + walkinTotal, nil
}

func (r *repository) CountMemberPaymentsOn(ctx context.Context, date time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM payments
		WHERE payment_date::date = $1::date
	`, date)
	return count, err
}

func (r *repository) CountWalkInsOn(ctx context.Context, date time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM walk_in_payments
		WHERE payment_date::date = $1::date
	`, date)
	return count, err
}

func (r *repository) RecentMemberPayments(ctx context.Context, limit int) ([]PaymentWithDetails, error) {
	if limit <= 0 {
		limit = 10
	}

	payments := []PaymentWithDetails{}
	err := r.db.SelectContext(ctx, &payments, `
		SELECT p.id, p.membership_id, p.member_id, p.amount_centavos, p.method, p.payment_date, p.reference_no, p.notes, p.created_at,
		       u.name AS member_name, pl.name AS plan_name
		FROM payments p
		JOIN users u ON u.id = p.member_id
		JOIN memberships m ON m.id = p.membership_id
		JOIN plans pl ON pl.id = m.plan_id
		ORDER BY p.payment_date DESC
		LIMIT $1
	`, limit)
	return payments, err
}

func (r *repository) RecentWalkIns(ctx context.Context, limit int) ([]WalkInWithPass, error) {
	if limit <= 0 {
		limit = 10
	}

	walkins := []WalkInWithPass{}
	err := r.db.SelectContext(ctx, &walkins, `
		SELECT w.id, w.plan_id, w.customer_name, w.mobile_no, w.amount_centavos, w.method, w.payment_date, w.reference_no, w.notes, w.created_at,
		       p.name AS pass_name
		FROM walk_in_payments w
		JOIN plans p ON p.id = w.plan_id
		ORDER BY w.payment_date DESC
		LIMIT $1
	`, limit)
	return walkins, err
}

func (r *repository) ListByMember(ctx context.Context, memberID, limit int) ([]PaymentWithDetails, error) {
	if limit <= 0 {
		limit = 10
	}

	payments := []PaymentWithDetails{}
	err := r.db.SelectContext(ctx, &payments, `
		SELECT p.id, p.membership_id, p.member_id, p.amount_centavos, p.method, p.payment_date, p.reference_no, p.notes, p.created_at,
		       u.name AS member_name, pl.name AS plan_name
		FROM payments p
		JOIN users u ON u.id = p.member_id
		JOIN memberships m ON m.id = p.membership_id
		JOIN plans pl ON pl.id = m.plan_id
		WHERE p.member_id = $1
		ORDER BY p.payment_date DESC
		LIMIT $2
	`, memberID, limit)
	return payments, err
}
