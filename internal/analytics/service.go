package analytics

import (
	"context"
	"fmt"
	"time"

	"gymtrack/internal/apperr"
	"gymtrack/internal/audit"
	"gymtrack/internal/membership"
	"gymtrack/internal/metrics"
	"gymtrack/internal/payment"
	"gymtrack/internal/user"
)

type Service interface {
	GenerateReport(ctx context.Context, targetDate time.Time) (*Snapshot, error)
	GenerateRange(ctx context.Context, from, to time.Time) ([]Snapshot, error)
	GetByDate(ctx context.Context, date time.Time) (*Snapshot, error)
	ListRecent(ctx context.Context, limit int) ([]Snapshot, error)
}

type service struct {
	repo           Repository
	membershipRepo membership.Repository
	paymentRepo    payment.Repository
	auditSink      *audit.Service
}

func NewService(repo Repository, membershipRepo membership.Repository, paymentRepo payment.Repository, auditSink *audit.Service) Service {
	return &service{
		repo:           repo,
		membershipRepo: membershipRepo,
		paymentRepo:    paymentRepo,
		auditSink:      auditSink,
	}
}

// GenerateReport derives the per-date rollup from ledger state at call
// time and upserts it keyed on the date. Calling it twice without
// ledger changes in between stores the identical row; with changes,
// last write wins.
func (s *service) GenerateReport(ctx context.Context, targetDate time.Time) (*Snapshot, error) {
	date := membership.DateOnly(targetDate)

	totalMembers, err := s.membershipRepo.CountActiveOn(ctx, date)
	if err != nil {
		return nil, err
	}

	totalPasses, err := s.paymentRepo.CountWalkInsOn(ctx, date)
	if err != nil {
		return nil, err
	}

	totalSales, err := s.paymentRepo.RevenueFor(ctx, date, date, payment.StreamBoth)
	if err != nil {
		return nil, err
	}

	ageGroup, err := s.dominantAgeGroup(ctx, date)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.repo.Upsert(ctx, date, totalMembers, totalPasses, totalSales, ageGroup)
	if err != nil {
		return nil, err
	}

	s.auditSink.Emit(ctx, audit.Event{
		Action:      audit.ActionReportGenerated,
		Description: fmt.Sprintf("Analytics snapshot generated for %s", date.Format("2006-01-02")),
		EntityType:  strPtr("analytics_snapshot"),
		EntityID:    &snapshot.ID,
	})
	metrics.RecordReportGenerated()

	return snapshot, nil
}

// dominantAgeGroup tags the snapshot with the most common age bucket
// among members active on the date, nil when nothing is known.
func (s *service) dominantAgeGroup(ctx context.Context, date time.Time) (*string, error) {
	birthdates, err := s.repo.ActiveMemberBirthdates(ctx, date)
	if err != nil {
		return nil, err
	}

	counts := map[string]int{}
	for _, b := range birthdates {
		if b == nil {
			continue
		}
		u := user.User{Birthdate: b}
		counts[user.AgeGroup(u.Age(date))]++
	}

	var best string
	var bestCount int
	for group, count := range counts {
		if count > bestCount || (count == bestCount && group < best) {
			best, bestCount = group, count
		}
	}

	if bestCount == 0 {
		return nil, nil
	}
	return &best, nil
}

// GenerateRange is a convenience over repeated single-date calls; the
// per-date upsert stays the atomic unit.
func (s *service) GenerateRange(ctx context.Context, from, to time.Time) ([]Snapshot, error) {
	start := membership.DateOnly(from)
	end := membership.DateOnly(to)
	if end.Before(start) {
		return nil, apperr.Validation("range end %s precedes start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	snapshots := []Snapshot{}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		snapshot, err := s.GenerateReport(ctx, d)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *snapshot)
	}

	return snapshots, nil
}

func (s *service) GetByDate(ctx context.Context, date time.Time) (*Snapshot, error) {
	return s.repo.GetByDate(ctx, date)
}

func (s *service) ListRecent(ctx context.Context, limit int) ([]Snapshot, error) {
	return s.repo.ListRecent(ctx, limit)
}

func strPtr(s string) *string {
	return &s
}
