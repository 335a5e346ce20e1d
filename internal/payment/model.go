package payment

import (
	"strings"
	"time"
)

type Method string

const (
	MethodCash  Method = "cash"
	MethodGCash Method = "gcash"
	MethodCard  Method = "card"
)

func ParseMethod(s string) (Method, bool) {
	m := Method(strings.ToLower(s))
	switch m {
	case MethodCash, MethodGCash, MethodCard:
		return m, true
	}
	return "", false
}

// Stream selects which revenue log a query covers.
type Stream string

const (
	StreamMember Stream = "member"
	StreamWalkIn Stream = "walkin"
	StreamBoth   Stream = "both"
)

// Payment is a member payment tied to a membership. Financial rows are
// write-once: corrections are new compensating records, never edits.
type Payment struct {
	ID             int       `db:"id" json:"id"`
	MembershipID   int       `db:"membership_id" json:"membership_id"`
	MemberID       int       `db:"member_id" json:"member_id"`
	AmountCentavos int64     `db:"amount_centavos" json:"amount_centavos"`
	Method         Method    `db:"method" json:"method"`
	PaymentDate    time.Time `db:"payment_date" json:"payment_date"`
	ReferenceNo    *string   `db:"reference_no" json:"reference_no,omitempty"`
	Notes          *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// WalkInPayment is a pass sale with no member identity attached.
type WalkInPayment struct {
	ID             int       `db:"id" json:"id"`
	PlanID         int       `db:"plan_id" json:"plan_id"`
	CustomerName   *string   `db:"customer_name" json:"customer_name,omitempty"`
	MobileNo       *string   `db:"mobile_no" json:"mobile_no,omitempty"`
	AmountCentavos int64     `db:"amount_centavos" json:"amount_centavos"`
	Method         Method    `db:"method" json:"method"`
	PaymentDate    time.Time `db:"payment_date" json:"payment_date"`
	ReferenceNo    *string   `db:"reference_no" json:"reference_no,omitempty"`
	Notes          *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// PaymentWithDetails joins member and plan names for dashboards.
type PaymentWithDetails struct {
	Payment
	MemberName string `db:"member_name" json:"member_name"`
	PlanName   string `db:"plan_name" json:"plan_name"`
}

// WalkInWithPass joins the pass name for dashboards.
type WalkInWithPass struct {
	WalkInPayment
	PassName string `db:"pass_name" json:"pass_name"`
}
