package audit

import (
	"context"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, e *Event) error {
	metadata := e.Metadata
	if len(metadata) == 0 {
		metadata = []byte("{}")
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_events (action, actor_id, description, severity, ip_address, entity_type, entity_id, metadata, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, e.Action, e.ActorID, e.Description, e.Severity, e.IPAddress, e.EntityType, e.EntityID, metadata, e.Timestamp)
	return err
}

type Filter struct {
	Action   Action
	Severity Severity
	ActorID  *int
	Since    *time.Time
	Limit    int
}

func (r *Repository) List(ctx context.Context, f Filter) ([]Event, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}

	query := `
		SELECT id, action, actor_id, description, severity, ip_address, entity_type, entity_id, metadata, timestamp
		FROM audit_events
		WHERE 1=1`
	args := []interface{}{}

	if f.Action != "" {
		args = append(args, f.Action)
		query += ` AND action = $` + strconv.Itoa(len(args))
	}
	if f.Severity != "" {
		args = append(args, f.Severity)
		query += ` AND severity = $` + strconv.Itoa(len(args))
	}
	if f.ActorID != nil {
		args = append(args, *f.ActorID)
		query += ` AND actor_id = $` + strconv.Itoa(len(args))
	}
	if f.Since != nil {
		args = append(args, *f.Since)
		query += ` AND timestamp >= $` + strconv.Itoa(len(args))
	}

	args = append(args, f.Limit)
	query += ` ORDER BY timestamp DESC LIMIT $` + strconv.Itoa(len(args))

	events := []Event{}
	err := r.db.SelectContext(ctx, &events, query, args...)
	return events, err
}
