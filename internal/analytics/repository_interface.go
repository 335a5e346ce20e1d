package analytics

import (
	"context"
	"time"
)

type Repository interface {
	Upsert(ctx context.Context, date time.Time, totalMembers, totalPasses int, totalSalesCentavos int64, ageGroup *string) (*Snapshot, error)
	GetByDate(ctx context.Context, date time.Time) (*Snapshot, error)
	ListRecent(ctx context.Context, limit int) ([]Snapshot, error)
	ActiveMemberBirthdates(ctx context.Context, date time.Time) ([]*time.Time, error)
}
