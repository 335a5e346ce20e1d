package membership

import (
	"context"
	"fmt"
	"time"

	"gymtrack/internal/apperr"
	"gymtrack/internal/audit"
	"gymtrack/internal/logger"
	"gymtrack/internal/metrics"
	"gymtrack/internal/payment"
	"gymtrack/internal/plan"
)

type Service interface {
	Subscribe(ctx context.Context, memberID int, req SubscribeRequest, ip string) (*Membership, *payment.Payment, error)
	Cancel(ctx context.Context, actorID, membershipID int, ip string) error
	Get(ctx context.Context, membershipID int) (*Membership, error)
	Current(ctx context.Context, memberID int) (*Membership, error)
	History(ctx context.Context, memberID int) ([]Membership, error)
	ExpiringWithin(ctx context.Context, windowDays int, asOf time.Time) ([]MembershipWithDetails, error)
	RefreshStatuses(ctx context.Context, asOf time.Time) (int64, error)
}

type SubscribeRequest struct {
	PlanID         int     `json:"plan_id" binding:"required"`
	StartDate      *string `json:"start_date,omitempty"`
	Method         string  `json:"method" binding:"required"`
	AmountCentavos *int64  `json:"amount_centavos,omitempty"`
	ReferenceNo    *string `json:"reference_no,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

type service struct {
	repo      Repository
	planRepo  plan.Repository
	payRepo   payment.Repository
	auditSink *audit.Service
	now       func() time.Time
}

func NewService(repo Repository, planRepo plan.Repository, payRepo payment.Repository, auditSink *audit.Service) Service {
	return &service{
		repo:      repo,
		planRepo:  planRepo,
		payRepo:   payRepo,
		auditSink: auditSink,
		now:       time.Now,
	}
}

// Subscribe creates the membership and records its first payment in a
// single transaction: either both persist or neither does. The member
// row is locked first so a double submit cannot slip two active
// memberships past the check.
func (s *service) Subscribe(ctx context.Context, memberID int, req SubscribeRequest, ip string) (*Membership, *payment.Payment, error) {
	method, ok := payment.ParseMethod(req.Method)
	if !ok {
		return nil, nil, apperr.Validation("unknown payment method %q", req.Method)
	}

	p, err := s.planRepo.GetActiveByID(ctx, req.PlanID, plan.KindMembership)
	if err != nil {
		return nil, nil, err
	}

	startDate := DateOnly(s.now())
	if req.StartDate != nil && *req.StartDate != "" {
		startDate, err = time.Parse("2006-01-02", *req.StartDate)
		if err != nil {
			return nil, nil, apperr.Validation("invalid start_date %q, want YYYY-MM-DD", *req.StartDate)
		}
	}

	amount := p.PriceCentavos
	if req.AmountCentavos != nil {
		amount = *req.AmountCentavos
	}
	if amount <= 0 {
		return nil, nil, apperr.Validation("amount must be positive, got %d", amount)
	}

	endDate := EndDateFor(startDate, p.DurationDays)

	// Backdated data can arrive already expired; store it that way
	// rather than pretending it is active.
	status := StatusActive
	if endDate.Before(DateOnly(s.now())) {
		status = StatusExpired
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	if err := s.repo.LockMemberTx(ctx, tx, memberID); err != nil {
		return nil, nil, err
	}

	exists, err := s.repo.ActiveExistsTx(ctx, tx, memberID, startDate)
	if err != nil {
		return nil, nil, err
	}
	if exists {
		return nil, nil, apperr.Conflict("member %d already has an active membership as of %s", memberID, startDate.Format("2006-01-02"))
	}

	m, err := s.repo.InsertTx(ctx, tx, memberID, p.ID, startDate, endDate, status)
	if err != nil {
		return nil, nil, err
	}

	pay, err := s.payRepo.InsertMemberPaymentTx(ctx, tx, m.ID, memberID, amount, method, req.ReferenceNo, req.Notes, s.now())
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	s.auditSink.Emit(ctx, audit.Event{
		Action:      audit.ActionMembershipCreated,
		ActorID:     &memberID,
		Description: fmt.Sprintf("Subscribed to %s - %d centavos", p.Name, amount),
		IPAddress:   ip,
		EntityType:  strPtr("membership"),
		EntityID:    &m.ID,
	})
	s.auditSink.Emit(ctx, audit.Event{
		Action:      audit.ActionPaymentReceived,
		ActorID:     &memberID,
		Description: fmt.Sprintf("Payment received: %d centavos via %s", amount, method),
		IPAddress:   ip,
		EntityType:  strPtr("payment"),
		EntityID:    &pay.ID,
	})
	metrics.RecordMembership(p.Name)
	metrics.RecordPayment(string(payment.StreamMember), string(method), amount)
	logger.Infof("Membership created: plan=%s member=%d", p.Name, memberID)

	return m, pay, nil
}

func (s *service) Cancel(ctx context.Context, actorID, membershipID int, ip string) error {
	if err := s.repo.Cancel(ctx, membershipID); err != nil {
		return err
	}

	s.auditSink.Emit(ctx, audit.Event{
		Action:      audit.ActionMembershipCancelled,
		ActorID:     &actorID,
		Description: fmt.Sprintf("Membership %d cancelled", membershipID),
		IPAddress:   ip,
		EntityType:  strPtr("membership"),
		EntityID:    &membershipID,
	})
	metrics.RecordMembershipCancellation()

	return nil
}

func (s *service) Get(ctx context.Context, membershipID int) (*Membership, error) {
	return s.repo.GetByID(ctx, membershipID)
}

func (s *service) Current(ctx context.Context, memberID int) (*Membership, error) {
	return s.repo.CurrentForMember(ctx, memberID, s.now())
}

func (s *service) History(ctx context.Context, memberID int) ([]Membership, error) {
	return s.repo.ListByMember(ctx, memberID)
}

func (s *service) ExpiringWithin(ctx context.Context, windowDays int, asOf time.Time) ([]MembershipWithDetails, error) {
	if windowDays < 0 {
		return nil, apperr.Validation("window_days must not be negative, got %d", windowDays)
	}
	return s.repo.ExpiringWithin(ctx, asOf, windowDays)
}

func (s *service) RefreshStatuses(ctx context.Context, asOf time.Time) (int64, error) {
	return s.repo.RefreshStatuses(ctx, asOf)
}

func strPtr(s string) *string {
	return &s
}
