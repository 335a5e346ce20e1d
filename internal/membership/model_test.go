package membership

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEndDateFor(t *testing.T) {
	tests := []struct {
		name         string
		start        time.Time
		durationDays int
		want         time.Time
	}{
		{"thirty day plan", date(2024, 1, 1), 30, date(2024, 1, 31)},
		{"one day pass window", date(2024, 1, 1), 1, date(2024, 1, 2)},
		{"crosses month boundary", date(2024, 2, 15), 30, date(2024, 3, 16)},
		{"annual plan", date(2024, 1, 1), 365, date(2024, 12, 31)},
		{"start time of day discarded", time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC), 30, date(2024, 1, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EndDateFor(tt.start, tt.durationDays))
		})
	}
}

func TestResolveStatus(t *testing.T) {
	m := &Membership{
		StartDate: date(2024, 1, 1),
		EndDate:   date(2024, 1, 31),
		Status:    StatusActive,
	}

	tests := []struct {
		name string
		asOf time.Time
		want Status
	}{
		{"before start", date(2023, 12, 25), StatusPending},
		{"on start date", date(2024, 1, 1), StatusActive},
		{"mid window", date(2024, 1, 25), StatusActive},
		{"on end date", date(2024, 1, 31), StatusActive},
		{"day after end", date(2024, 2, 1), StatusExpired},
		{"long after end", date(2024, 6, 1), StatusExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveStatus(m, tt.asOf))
		})
	}
}

func TestResolveStatusCancelledIsSticky(t *testing.T) {
	m := &Membership{
		StartDate: date(2024, 1, 1),
		EndDate:   date(2024, 1, 31),
		Status:    StatusCancelled,
	}

	// Cancelled wins regardless of where asOf falls in the window.
	assert.Equal(t, StatusCancelled, ResolveStatus(m, date(2023, 12, 25)))
	assert.Equal(t, StatusCancelled, ResolveStatus(m, date(2024, 1, 15)))
	assert.Equal(t, StatusCancelled, ResolveStatus(m, date(2024, 6, 1)))
}

func TestResolveStatusStaleCacheIgnored(t *testing.T) {
	// Stored status still says active but the window has lapsed.
	m := &Membership{
		StartDate: date(2024, 1, 1),
		EndDate:   date(2024, 1, 31),
		Status:    StatusActive,
	}

	assert.Equal(t, StatusExpired, ResolveStatus(m, date(2024, 2, 1)))
}

func TestDaysRemaining(t *testing.T) {
	m := &Membership{
		StartDate: date(2024, 1, 1),
		EndDate:   date(2024, 1, 31),
		Status:    StatusActive,
	}

	tests := []struct {
		name string
		asOf time.Time
		want int
	}{
		{"six days left", date(2024, 1, 25), 6},
		{"last day", date(2024, 1, 31), 0},
		{"after end clamps to zero", date(2024, 2, 1), 0},
		{"start of window", date(2024, 1, 1), 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysRemaining(m, tt.asOf))
		})
	}
}

func TestDateOnly(t *testing.T) {
	ts := time.Date(2024, 3, 15, 18, 42, 7, 123, time.UTC)
	assert.Equal(t, date(2024, 3, 15), DateOnly(ts))
}

func TestDateOnlyNormalizesZone(t *testing.T) {
	manila := time.FixedZone("GMT+8", 8*3600)
	ts := time.Date(2024, 3, 15, 23, 30, 0, 0, manila)
	assert.Equal(t, date(2024, 3, 15), DateOnly(ts))
}

func TestResolveStatusAcrossZones(t *testing.T) {
	// End dates come off DATE columns as midnight UTC; the clock the
	// handler passes carries the server zone. The calendar day is what
	// decides, not the instant.
	m := &Membership{
		StartDate: date(2024, 1, 1),
		EndDate:   date(2024, 1, 31),
		Status:    StatusActive,
	}

	west := time.FixedZone("GMT-5", -5*3600)
	east := time.FixedZone("GMT+8", 8*3600)

	assert.Equal(t, StatusActive, ResolveStatus(m, time.Date(2024, 1, 31, 9, 0, 0, 0, west)))
	assert.Equal(t, StatusActive, ResolveStatus(m, time.Date(2024, 1, 31, 9, 0, 0, 0, east)))
	assert.Equal(t, StatusExpired, ResolveStatus(m, time.Date(2024, 2, 1, 9, 0, 0, 0, west)))
	assert.Equal(t, StatusPending, ResolveStatus(m, time.Date(2023, 12, 31, 23, 0, 0, 0, east)))
}

func TestDaysRemainingAcrossZones(t *testing.T) {
	m := &Membership{
		StartDate: date(2024, 1, 1),
		EndDate:   date(2024, 1, 31),
		Status:    StatusActive,
	}

	west := time.FixedZone("GMT-5", -5*3600)
	assert.Equal(t, 6, DaysRemaining(m, time.Date(2024, 1, 25, 20, 0, 0, 0, west)))
	assert.Equal(t, 0, DaysRemaining(m, time.Date(2024, 1, 31, 8, 0, 0, 0, west)))
}
