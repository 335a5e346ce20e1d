package report

import (
	"context"
	"time"

	"gymtrack/internal/analytics"
	"gymtrack/internal/membership"
	"gymtrack/internal/payment"
	"gymtrack/internal/user"
)

// RevenueSplit breaks a period's revenue down by stream.
type RevenueSplit struct {
	MemberCentavos int64 `json:"member_centavos"`
	WalkInCentavos int64 `json:"walkin_centavos"`
	TotalCentavos  int64 `json:"total_centavos"`
}

type AdminDashboard struct {
	ActiveMemberships int                                `json:"active_memberships"`
	TotalMembers      int                                `json:"total_members"`
	TodayRevenue      RevenueSplit                       `json:"today_revenue"`
	MonthRevenue      RevenueSplit                       `json:"month_revenue"`
	RecentPayments    []payment.PaymentWithDetails       `json:"recent_payments"`
	RecentWalkIns     []payment.WalkInWithPass           `json:"recent_walkins"`
	ExpiringSoon      []membership.MembershipWithDetails `json:"expiring_soon"`
}

type StaffDashboard struct {
	TodayPayments  int                                `json:"today_payments"`
	TodayWalkIns   int                                `json:"today_walkins"`
	TodayRevenue   RevenueSplit                       `json:"today_revenue"`
	RecentPayments []payment.PaymentWithDetails       `json:"recent_payments"`
	RecentWalkIns  []payment.WalkInWithPass           `json:"recent_walkins"`
	ExpiringSoon   []membership.MembershipWithDetails `json:"expiring_soon"`
}

type ReportsOverview struct {
	Today           *analytics.Snapshot  `json:"today"`
	RecentSnapshots []analytics.Snapshot `json:"recent_snapshots"`
	AllTimeRevenue  RevenueSplit         `json:"all_time_revenue"`
}

type Service interface {
	AdminDashboard(ctx context.Context) (*AdminDashboard, error)
	StaffDashboard(ctx context.Context) (*StaffDashboard, error)
	ReportsOverview(ctx context.Context) (*ReportsOverview, error)
	TodayRevenue(ctx context.Context) (RevenueSplit, error)
}

type service struct {
	paymentRepo    payment.Repository
	membershipRepo membership.Repository
	userRepo       user.Repository
	analytics      analytics.Service
	now            func() time.Time
}

func NewService(paymentRepo payment.Repository, membershipRepo membership.Repository, userRepo user.Repository, analyticsService analytics.Service) Service {
	return &service{
		paymentRepo:    paymentRepo,
		membershipRepo: membershipRepo,
		userRepo:       userRepo,
		analytics:      analyticsService,
		now:            time.Now,
	}
}

// allTimeFloor is well before the gym opened; revenue queries need a
// concrete lower bound.
var allTimeFloor = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

func (s *service) revenueSplit(ctx context.Context, from, to time.Time) (RevenueSplit, error) {
	memberTotal, err := s.paymentRepo.RevenueFor(ctx, from, to, payment.StreamMember)
	if err != nil {
		return RevenueSplit{}, err
	}

	walkinTotal, err := s.paymentRepo.RevenueFor(ctx, from, to, payment.StreamWalkIn)
	if err != nil {
		return RevenueSplit{}, err
	}

	return RevenueSplit{
		MemberCentavos: memberTotal,
		WalkInCentavos: walkinTotal,
		TotalCentavos:  memberTotal + walkinTotal,
	}, nil
}

func (s *service) TodayRevenue(ctx context.Context) (RevenueSplit, error) {
	today := s.now()
	return s.revenueSplit(ctx, today, today)
}

func (s *service) AdminDashboard(ctx context.Context) (*AdminDashboard, error) {
	today := s.now()
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())

	activeMemberships, err := s.membershipRepo.CountActiveOn(ctx, today)
	if err != nil {
		return nil, err
	}

	totalMembers, err := s.userRepo.CountMembers(ctx)
	if err != nil {
		return nil, err
	}

	todayRevenue, err := s.revenueSplit(ctx, today, today)
	if err != nil {
		return nil, err
	}

	monthRevenue, err := s.revenueSplit(ctx, monthStart, today)
	if err != nil {
		return nil, err
	}

	recentPayments, err := s.paymentRepo.RecentMemberPayments(ctx, 10)
	if err != nil {
		return nil, err
	}

	recentWalkIns, err := s.paymentRepo.RecentWalkIns(ctx, 10)
	if err != nil {
		return nil, err
	}

	expiringSoon, err := s.membershipRepo.ExpiringWithin(ctx, today, 7)
	if err != nil {
		return nil, err
	}

	return &AdminDashboard{
		ActiveMemberships: activeMemberships,
		TotalMembers:      totalMembers,
		TodayRevenue:      todayRevenue,
		MonthRevenue:      monthRevenue,
		RecentPayments:    recentPayments,
		RecentWalkIns:     recentWalkIns,
		ExpiringSoon:      expiringSoon,
	}, nil
}

func (s *service) StaffDashboard(ctx context.Context) (*StaffDashboard, error) {
	today := s.now()

	todayPayments, err := s.paymentRepo.CountMemberPaymentsOn(ctx, today)
	if err != nil {
		return nil, err
	}

	todayWalkIns, err := s.paymentRepo.CountWalkInsOn(ctx, today)
	if err != nil {
		return nil, err
	}

	todayRevenue, err := s.revenueSplit(ctx, today, today)
	if err != nil {
		return nil, err
	}

	recentPayments, err := s.paymentRepo.RecentMemberPayments(ctx, 10)
	if err != nil {
		return nil, err
	}

	recentWalkIns, err := s.paymentRepo.RecentWalkIns(ctx, 10)
	if err != nil {
		return nil, err
	}

	expiringSoon, err := s.membershipRepo.ExpiringWithin(ctx, today, 7)
	if err != nil {
		return nil, err
	}

	return &StaffDashboard{
		TodayPayments:  todayPayments,
		TodayWalkIns:   todayWalkIns,
		TodayRevenue:   todayRevenue,
		RecentPayments: recentPayments,
		RecentWalkIns:  recentWalkIns,
		ExpiringSoon:   expiringSoon,
	}, nil
}

// ReportsOverview regenerates today's snapshot before reading, so the
// admin reports page always reflects ledger state at call time.
func (s *service) ReportsOverview(ctx context.Context) (*ReportsOverview, error) {
	today := s.now()

	snapshot, err := s.analytics.GenerateReport(ctx, today)
	if err != nil {
		return nil, err
	}

	recent, err := s.analytics.ListRecent(ctx, 30)
	if err != nil {
		return nil, err
	}

	allTime, err := s.revenueSplit(ctx, allTimeFloor, today)
	if err != nil {
		return nil, err
	}

	return &ReportsOverview{
		Today:           snapshot,
		RecentSnapshots: recent,
		AllTimeRevenue:  allTime,
	}, nil
}
