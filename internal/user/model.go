package user

import (
	"time"

	"gymtrack/internal/auth"
)

type User struct {
	ID           int        `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         auth.Role  `db:"role" json:"role"`
	MobileNo     *string    `db:"mobile_no" json:"mobile_no,omitempty"`
	Address      *string    `db:"address" json:"address,omitempty"`
	Birthdate    *time.Time `db:"birthdate" json:"birthdate,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Age computes completed years as of the given date, or -1 if the
// birthdate is unknown.
func (u *User) Age(asOf time.Time) int {
	if u.Birthdate == nil {
		return -1
	}

	b := *u.Birthdate
	age := asOf.Year() - b.Year()
	if asOf.Month() < b.Month() || (asOf.Month() == b.Month() && asOf.Day() < b.Day()) {
		age--
	}
	return age
}

// AgeGroup buckets an age the way the analytics snapshot tags it.
func AgeGroup(age int) string {
	switch {
	case age < 0:
		return "unknown"
	case age < 18:
		return "under-18"
	case age <= 25:
		return "18-25"
	case age <= 35:
		return "26-35"
	case age <= 45:
		return "36-45"
	case age <= 55:
		return "46-55"
	default:
		return "56+"
	}
}
