package plan

import "context"

type Repository interface {
	Create(ctx context.Context, name string, kind Kind, durationDays int, priceCentavos int64, description *string) (*Plan, error)
	Update(ctx context.Context, id int, name string, durationDays int, priceCentavos int64, description *string, isActive bool) (*Plan, error)
	GetByID(ctx context.Context, id int) (*Plan, error)
	GetActiveByID(ctx context.Context, id int, kind Kind) (*Plan, error)
	ListActive(ctx context.Context, kind Kind) ([]Plan, error)
	ListAll(ctx context.Context) ([]Plan, error)
	Deactivate(ctx context.Context, id int) error
}
