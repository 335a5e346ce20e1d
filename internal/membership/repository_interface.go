package membership

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	BeginTx(ctx context.Context) (*sqlx.Tx, error)
	LockMemberTx(ctx context.Context, tx *sqlx.Tx, memberID int) error
	ActiveExistsTx(ctx context.Context, tx *sqlx.Tx, memberID int, asOf time.Time) (bool, error)
	InsertTx(ctx context.Context, tx *sqlx.Tx, memberID, planID int, startDate, endDate time.Time, status Status) (*Membership, error)
	GetByID(ctx context.Context, id int) (*Membership, error)
	ListByMember(ctx context.Context, memberID int) ([]Membership, error)
	CurrentForMember(ctx context.Context, memberID int, asOf time.Time) (*Membership, error)
	Cancel(ctx context.Context, id int) error
	ExpiringWithin(ctx context.Context, asOf time.Time, windowDays int) ([]MembershipWithDetails, error)
	CountActiveOn(ctx context.Context, date time.Time) (int, error)
	RefreshStatuses(ctx context.Context, asOf time.Time) (int64, error)
}
