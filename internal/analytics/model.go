package analytics

import "time"

// Snapshot is the per-date rollup derived from the ledgers. It is
// never hand-edited; regenerating a date overwrites the previous row.
type Snapshot struct {
	ID                 int       `db:"id" json:"id"`
	Date               time.Time `db:"date" json:"date"`
	TotalMembers       int       `db:"total_members" json:"total_members"`
	TotalPasses        int       `db:"total_passes" json:"total_passes"`
	TotalSalesCentavos int64     `db:"total_sales_centavos" json:"total_sales_centavos"`
	AgeGroup           *string   `db:"age_group" json:"age_group,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}
