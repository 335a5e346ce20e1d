package payment

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// Repository is deliberately append-only for financial rows: there is
// no update or delete operation, and none may be added. Corrections
// are modeled as new compensating records.
type Repository interface {
	InsertMemberPaymentTx(ctx context.Context, tx *sqlx.Tx, membershipID, memberID int, amountCentavos int64, method Method, referenceNo, notes *string, paymentDate time.Time) (*Payment, error)
	InsertMemberPayment(ctx context.Context, membershipID, memberID int, amountCentavos int64, method Method, referenceNo, notes *string, paymentDate time.Time) (*Payment, error)
	InsertWalkInPayment(ctx context.Context, planID int, customerName, mobileNo *string, amountCentavos int64, method Method, referenceNo, notes *string, paymentDate time.Time) (*WalkInPayment, error)

	RevenueFor(ctx context.Context, from, to time.Time, stream Stream) (int64, error)
	CountMemberPaymentsOn(ctx context.Context, date time.Time) (int, error)
	CountWalkInsOn(ctx context.Context, date time.Time) (int, error)

	RecentMemberPayments(ctx context.Context, limit int) ([]PaymentWithDetails, error)
	RecentWalkIns(ctx context.Context, limit int) ([]WalkInWithPass, error)
	ListByMember(ctx context.Context, memberID, limit int) ([]PaymentWithDetails, error)
}
