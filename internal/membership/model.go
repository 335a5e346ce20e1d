package membership

import "time"

type Status string

const (
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"

	// StatusPending is resolution-only: a membership whose start date
	// is still in the future. It is never persisted.
	StatusPending Status = "pending"
)

// Membership is one subscription instance. The stored Status column is
// a cache; anything deciding "is this active now" must go through
// ResolveStatus because time advances independent of writes.
type Membership struct {
	ID        int       `db:"id" json:"id"`
	MemberID  int       `db:"member_id" json:"member_id"`
	PlanID    int       `db:"plan_id" json:"plan_id"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	Status    Status    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// MembershipWithDetails joins the member and plan names for staff
// listings.
type MembershipWithDetails struct {
	Membership
	MemberName string `db:"member_name" json:"member_name"`
	PlanName   string `db:"plan_name" json:"plan_name"`
}

// DateOnly truncates a timestamp to its calendar date, pinned to UTC.
// DATE columns scan as midnight UTC while wall clocks carry the server
// zone; pinning both sides makes the comparison purely calendar-based.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndDateFor computes the membership window end from its start and the
// plan duration.
func EndDateFor(startDate time.Time, durationDays int) time.Time {
	return DateOnly(startDate).AddDate(0, 0, durationDays)
}

// ResolveStatus computes the authoritative status as of a date.
// Cancelled is sticky. A future start resolves to pending, which is
// distinct from expired.
func ResolveStatus(m *Membership, asOf time.Time) Status {
	if m.Status == StatusCancelled {
		return StatusCancelled
	}

	d := DateOnly(asOf)
	switch {
	case d.Before(DateOnly(m.StartDate)):
		return StatusPending
	case d.After(DateOnly(m.EndDate)):
		return StatusExpired
	default:
		return StatusActive
	}
}

// DaysRemaining reports whole days left in the window, never negative.
func DaysRemaining(m *Membership, asOf time.Time) int {
	end := DateOnly(m.EndDate)
	d := DateOnly(asOf)
	if end.Before(d) {
		return 0
	}
	return int(end.Sub(d) / (24 * time.Hour))
}
