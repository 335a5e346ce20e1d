package plan

import "time"

type Kind string

const (
	KindMembership Kind = "membership"
	KindWalkIn     Kind = "walkin"
)

// Plan is a catalog entry for a purchasable duration and price, either
// a recurring membership or a walk-in pass. Ledger rows snapshot the
// price at transaction time, so editing a plan never rewrites history.
type Plan struct {
	ID             int       `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Kind           Kind      `db:"kind" json:"kind"`
	DurationDays   int       `db:"duration_days" json:"duration_days"`
	PriceCentavos  int64     `db:"price_centavos" json:"price_centavos"`
	Description    *string   `db:"description" json:"description,omitempty"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
