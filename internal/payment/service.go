package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gymtrack/internal/apperr"
	"gymtrack/internal/audit"
	"gymtrack/internal/metrics"
	"gymtrack/internal/plan"
)

type Service interface {
	StageWalkIn(ctx context.Context, staffID int, req StageWalkInRequest) (string, *PendingSale, error)
	ConfirmWalkIn(ctx context.Context, staffID int, token, ip string) (*WalkInPayment, error)
	CancelWalkIn(ctx context.Context, token string) error

	RecordMemberPayment(ctx context.Context, staffID int, req MemberPaymentRequest, ip string) (*Payment, error)

	RevenueFor(ctx context.Context, from, to time.Time, stream Stream) (int64, error)
	RecentMemberPayments(ctx context.Context, limit int) ([]PaymentWithDetails, error)
	RecentWalkIns(ctx context.Context, limit int) ([]WalkInWithPass, error)
	ListByMember(ctx context.Context, memberID, limit int) ([]PaymentWithDetails, error)
}

type StageWalkInRequest struct {
	PlanID       int     `json:"plan_id" binding:"required"`
	CustomerName *string `json:"customer_name,omitempty"`
	MobileNo     *string `json:"mobile_no,omitempty"`
	Method       string  `json:"method" binding:"required"`
	ReferenceNo  *string `json:"reference_no,omitempty"`
}

// MemberPaymentRequest records an additional manual payment against an
// existing membership (renewal settlement, partial payment top-up).
type MemberPaymentRequest struct {
	MembershipID   int     `json:"membership_id" binding:"required"`
	MemberID       int     `json:"member_id" binding:"required"`
	AmountCentavos int64   `json:"amount_centavos" binding:"required"`
	Method         string  `json:"method" binding:"required"`
	ReferenceNo    *string `json:"reference_no,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

type service struct {
	repo      Repository
	planRepo  plan.Repository
	pending   *PendingStore
	auditSink *audit.Service
}

func NewService(repo Repository, planRepo plan.Repository, pending *PendingStore, auditSink *audit.Service) Service {
	return &service{
		repo:      repo,
		planRepo:  planRepo,
		pending:   pending,
		auditSink: auditSink,
	}
}

func (s *service) StageWalkIn(ctx context.Context, staffID int, req StageWalkInRequest) (string, *PendingSale, error) {
	method, ok := ParseMethod(req.Method)
	if !ok {
		return "", nil, apperr.Validation("unknown payment method %q", req.Method)
	}

	pass, err := s.planRepo.GetActiveByID(ctx, req.PlanID, plan.KindWalkIn)
	if err != nil {
		return "", nil, err
	}

	sale := PendingSale{
		PlanID:         pass.ID,
		PassName:       pass.Name,
		CustomerName:   req.CustomerName,
		MobileNo:       req.MobileNo,
		AmountCentavos: pass.PriceCentavos,
		Method:         method,
		ReferenceNo:    req.ReferenceNo,
		StagedBy:       staffID,
	}

	token, err := s.pending.Stage(ctx, sale)
	if err != nil {
		return "", nil, err
	}

	return token, &sale, nil
}

func (s *service) ConfirmWalkIn(ctx context.Context, staffID int, token, ip string) (*WalkInPayment, error) {
	sale, err := s.pending.Get(ctx, token)
	if errors.Is(err, ErrPendingNotFound) {
		return nil, apperr.NotFound("no pending walk-in sale for token")
	}
	if err != nil {
		return nil, err
	}

	// The pass may have been deactivated between staging and confirm.
	// Validate before consuming so a failed confirm leaves the staged
	// sale retriable until its TTL runs out.
	pass, err := s.planRepo.GetActiveByID(ctx, sale.PlanID, plan.KindWalkIn)
	if err != nil {
		return nil, err
	}

	if sale.AmountCentavos <= 0 {
		return nil, apperr.Validation("amount must be positive, got %d", sale.AmountCentavos)
	}

	// Take consumes the token; losing the race to a concurrent confirm
	// surfaces as NotFound.
	if _, err := s.pending.Take(ctx, token); err != nil {
		if errors.Is(err, ErrPendingNotFound) {
			return nil, apperr.NotFound("no pending walk-in sale for token")
		}
		return nil, err
	}

	w, err := s.repo.InsertWalkInPayment(ctx, pass.ID, sale.CustomerName, sale.MobileNo,
		sale.AmountCentavos, sale.Method, sale.ReferenceNo, nil, time.Now())
	if err != nil {
		return nil, err
	}

	customer := "Anonymous"
	if sale.CustomerName != nil && *sale.CustomerName != "" {
		customer = *sale.CustomerName
	}

	s.auditSink.Emit(ctx, audit.Event{
		Action:      audit.ActionWalkInSale,
		ActorID:     &staffID,
		Description: fmt.Sprintf("Walk-in sale: %s - %d centavos to %s", pass.Name, w.AmountCentavos, customer),
		IPAddress:   ip,
		EntityType:  strPtr("walk_in_payment"),
		EntityID:    &w.ID,
	})
	metrics.RecordWalkInSale(pass.Name)
	metrics.RecordPayment(string(StreamWalkIn), string(w.Method), w.AmountCentavos)

	return w, nil
}

func (s *service) CancelWalkIn(ctx context.Context, token string) error {
	err := s.pending.Discard(ctx, token)
	if errors.Is(err, ErrPendingNotFound) {
		return apperr.NotFound("no pending walk-in sale for token")
	}
	return err
}

func (s *service) RecordMemberPayment(ctx context.Context, staffID int, req MemberPaymentRequest, ip string) (*Payment, error) {
	method, ok := ParseMethod(req.Method)
	if !ok {
		return nil, apperr.Validation("unknown payment method %q", req.Method)
	}
	if req.AmountCentavos <= 0 {
		return nil, apperr.Validation("amount must be positive, got %d", req.AmountCentavos)
	}

	p, err := s.repo.InsertMemberPayment(ctx, req.MembershipID, req.MemberID,
		req.AmountCentavos, method, req.ReferenceNo, req.Notes, time.Now())
	if err != nil {
		return nil, err
	}

	s.auditSink.Emit(ctx, audit.Event{
		Action:      audit.ActionPaymentReceived,
		ActorID:     &staffID,
		Description: fmt.Sprintf("Payment received: %d centavos via %s for membership %d", p.AmountCentavos, p.Method, p.MembershipID),
		IPAddress:   ip,
		EntityType:  strPtr("payment"),
		EntityID:    &p.ID,
	})
	metrics.RecordPayment(string(StreamMember), string(p.Method), p.AmountCentavos)

	return p, nil
}

func (s *service) RevenueFor(ctx context.Context, from, to time.Time, stream Stream) (int64, error) {
	return s.repo.RevenueFor(ctx, from, to, stream)
}

func (s *service) RecentMemberPayments(ctx context.Context, limit int) ([]PaymentWithDetails, error) {
	return s.repo.RecentMemberPayments(ctx, limit)
}

func (s *service) RecentWalkIns(ctx context.Context, limit int) ([]WalkInWithPass, error) {
	return s.repo.RecentWalkIns(ctx, limit)
}

func (s *service) ListByMember(ctx context.Context, memberID, limit int) ([]PaymentWithDetails, error) {
	return s.repo.ListByMember(ctx, memberID, limit)
}

func strPtr(s string) *string {
	return &s
}
