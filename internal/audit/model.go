package audit

import (
	"encoding/json"
	"time"
)

type Action string

const (
	ActionLogin               Action = "login"
	ActionLoginFailed         Action = "login_failed"
	ActionLogout              Action = "logout"
	ActionRegister            Action = "register"
	ActionUserCreated         Action = "user_created"
	ActionMembershipCreated   Action = "membership_created"
	ActionMembershipCancelled Action = "membership_cancelled"
	ActionPaymentReceived     Action = "payment_received"
	ActionWalkInSale          Action = "walkin_sale"
	ActionUnauthorizedAccess  Action = "unauthorized_access"
	ActionReportGenerated     Action = "report_generated"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Event is the immutable record the core emits for every noteworthy
// action. ActorID is nil for anonymous actors (failed logins).
type Event struct {
	ID          int             `db:"id" json:"id"`
	Action      Action          `db:"action" json:"action"`
	ActorID     *int            `db:"actor_id" json:"actor_id,omitempty"`
	Description string          `db:"description" json:"description"`
	Severity    Severity        `db:"severity" json:"severity"`
	IPAddress   string          `db:"ip_address" json:"ip_address,omitempty"`
	EntityType  *string         `db:"entity_type" json:"entity_type,omitempty"`
	EntityID    *int            `db:"entity_id" json:"entity_id,omitempty"`
	Metadata    json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	Timestamp   time.Time       `db:"timestamp" json:"timestamp"`
}
