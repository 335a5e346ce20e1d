package faq

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gymtrack/internal/auth"
	"gymtrack/internal/logger"
	"gymtrack/internal/membership"
	"gymtrack/internal/plan"
	"gymtrack/internal/report"
)

// Responder answers front-desk questions by pattern matching and
// read-only catalog/report lookups. It is an explicitly constructed
// collaborator: callers inject its dependencies, there is no
// process-wide instance.
type Responder struct {
	plans       plan.Service
	memberships membership.Service
	reports     report.Service
	rules       []rule
}

// Actor identifies who is asking, so answers can include the member's
// own membership state and staff-only figures.
type Actor struct {
	ID   int
	Role auth.Role
}

type rule struct {
	pattern *regexp.Regexp
	answer  func(ctx context.Context, r *Responder, actor Actor) string
}

const fallback = "I am not sure I understand. Could you rephrase that? You can ask about plans, day passes, payment methods, or your membership."

func New(plans plan.Service, memberships membership.Service, reports report.Service) *Responder {
	r := &Responder{
		plans:       plans,
		memberships: memberships,
		reports:     reports,
	}
	r.rules = []rule{
		{regexp.MustCompile(`\b(hi|hello|hey)\b`), func(_ context.Context, _ *Responder, _ Actor) string {
			return "Hello! Welcome to the gym. Ask me about membership plans, walk-in passes, or payment methods."
		}},
		{regexp.MustCompile(`\b(membership )?plans?\b|\bsubscri`), answerPlans},
		{regexp.MustCompile(`\b(day pass|walk.?in|without (a )?membership|passes)\b`), answerPasses},
		{regexp.MustCompile(`\b(pay|payment|gcash|cash|card)\b`), func(_ context.Context, _ *Responder, _ Actor) string {
			return "We accept cash, GCash, and card payments for all memberships and walk-in passes."
		}},
		{regexp.MustCompile(`\b(my membership|my status|days (left|remaining)|expir)\b`), answerMembership},
		{regexp.MustCompile(`\b(revenue|sales) today\b|\btoday'?s (revenue|sales)\b`), answerRevenue},
		{regexp.MustCompile(`\b(thanks|thank you)\b`), func(_ context.Context, _ *Responder, _ Actor) string {
			return "You're welcome! Anything else I can help with?"
		}},
	}
	return r
}

// Respond never returns an error: answering is best effort, and lookup
// failures degrade to the canned apology. That leniency is acceptable
// here and nowhere else.
func (r *Responder) Respond(ctx context.Context, actor Actor, message string) string {
	normalized := strings.ToLower(strings.TrimSpace(message))
	if normalized == "" {
		return fallback
	}

	for _, rl := range r.rules {
		if rl.pattern.MatchString(normalized) {
			return rl.answer(ctx, r, actor)
		}
	}

	return fallback
}

func formatCentavos(centavos int64) string {
	return fmt.Sprintf("PHP %d.%02d", centavos/100, centavos%100)
}

func answerPlans(ctx context.Context, r *Responder, _ Actor) string {
	plans, err := r.plans.ListActive(ctx, plan.KindMembership)
	if err != nil {
		logger.Errorf("FAQ plan lookup failed: %v", err)
		return fallback
	}
	if len(plans) == 0 {
		return "We have no membership plans on offer right now. Please check back soon."
	}

	parts := make([]string, 0, len(plans))
	for _, p := range plans {
		parts = append(parts, fmt.Sprintf("%s (%d days, %s)", p.Name, p.DurationDays, formatCentavos(p.PriceCentavos)))
	}
	return "Our current membership plans: " + strings.Join(parts, ", ") + "."
}

func answerPasses(ctx context.Context, r *Responder, _ Actor) string {
	passes, err := r.plans.ListActive(ctx, plan.KindWalkIn)
	if err != nil {
		logger.Errorf("FAQ pass lookup failed: %v", err)
		return fallback
	}
	if len(passes) == 0 {
		return "Walk-in passes are not available right now. Please ask the front desk."
	}

	parts := make([]string, 0, len(passes))
	for _, p := range passes {
		parts = append(parts, fmt.Sprintf("%s (%d days, %s)", p.Name, p.DurationDays, formatCentavos(p.PriceCentavos)))
	}
	return "Yes! No membership needed. Walk-in passes: " + strings.Join(parts, ", ") + "."
}

func answerMembership(ctx context.Context, r *Responder, actor Actor) string {
	if actor.ID == 0 {
		return "Please log in so I can look up your membership."
	}

	m, err := r.memberships.Current(ctx, actor.ID)
	if err != nil {
		return "You have no current membership. Would you like to see our plans?"
	}

	now := time.Now()
	switch membership.ResolveStatus(m, now) {
	case membership.StatusPending:
		return fmt.Sprintf("Your membership starts on %s.", m.StartDate.Format("Jan 2, 2006"))
	case membership.StatusActive:
		return fmt.Sprintf("Your membership is active until %s, %d day(s) remaining.",
			m.EndDate.Format("Jan 2, 2006"), membership.DaysRemaining(m, now))
	default:
		return "Your membership has expired. Would you like to renew?"
	}
}

func answerRevenue(ctx context.Context, r *Responder, actor Actor) string {
	if !actor.Role.IsStaffOrAdmin() {
		return "Sorry, sales figures are only available to staff."
	}

	split, err := r.reports.TodayRevenue(ctx)
	if err != nil {
		logger.Errorf("FAQ revenue lookup failed: %v", err)
		return fallback
	}

	return fmt.Sprintf("Today's sales: %s total (%s member payments, %s walk-ins).",
		formatCentavos(split.TotalCentavos), formatCentavos(split.MemberCentavos), formatCentavos(split.WalkInCentavos))
}
