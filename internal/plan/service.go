package plan

import (
	"context"

	"gymtrack/internal/apperr"
)

type Service interface {
	Create(ctx context.Context, req CreatePlanRequest) (*Plan, error)
	Update(ctx context.Context, id int, req UpdatePlanRequest) (*Plan, error)
	Get(ctx context.Context, id int) (*Plan, error)
	ListActive(ctx context.Context, kind Kind) ([]Plan, error)
	ListAll(ctx context.Context) ([]Plan, error)
	Deactivate(ctx context.Context, id int) error
}

type CreatePlanRequest struct {
	Name          string  `json:"name" binding:"required" validate:"required,max=100"`
	Kind          string  `json:"kind" binding:"required" validate:"required,oneof=membership walkin"`
	DurationDays  int     `json:"duration_days" binding:"required" validate:"required,gt=0"`
	PriceCentavos int64   `json:"price_centavos" validate:"gte=0"`
	Description   *string `json:"description,omitempty"`
}

type UpdatePlanRequest struct {
	Name          string  `json:"name" binding:"required" validate:"required,max=100"`
	DurationDays  int     `json:"duration_days" binding:"required" validate:"required,gt=0"`
	PriceCentavos int64   `json:"price_centavos" validate:"gte=0"`
	Description   *string `json:"description,omitempty"`
	IsActive      bool    `json:"is_active"`
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func validateTerms(durationDays int, priceCentavos int64) error {
	if durationDays <= 0 {
		return apperr.Validation("duration_days must be positive, got %d", durationDays)
	}
	if priceCentavos < 0 {
		return apperr.Validation("price must not be negative, got %d", priceCentavos)
	}
	return nil
}

func (s *service) Create(ctx context.Context, req CreatePlanRequest) (*Plan, error) {
	kind := Kind(req.Kind)
	if kind != KindMembership && kind != KindWalkIn {
		return nil, apperr.Validation("unknown plan kind %q", req.Kind)
	}
	if err := validateTerms(req.DurationDays, req.PriceCentavos); err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, req.Name, kind, req.DurationDays, req.PriceCentavos, req.Description)
}

func (s *service) Update(ctx context.Context, id int, req UpdatePlanRequest) (*Plan, error) {
	if err := validateTerms(req.DurationDays, req.PriceCentavos); err != nil {
		return nil, err
	}

	return s.repo.Update(ctx, id, req.Name, req.DurationDays, req.PriceCentavos, req.Description, req.IsActive)
}

func (s *service) Get(ctx context.Context, id int) (*Plan, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListActive(ctx context.Context, kind Kind) ([]Plan, error) {
	return s.repo.ListActive(ctx, kind)
}

func (s *service) ListAll(ctx context.Context) ([]Plan, error) {
	return s.repo.ListAll(ctx)
}

func (s *service) Deactivate(ctx context.Context, id int) error {
	return s.repo.Deactivate(ctx, id)
}
