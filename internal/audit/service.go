package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"gymtrack/internal/logger"
	"gymtrack/internal/metrics"
)

const queueKey = "audit_events"

// Service queues audit events through redis and drains them into the
// append-only audit_events table. Emission is fire-and-forget: a sink
// failure is logged and counted, never returned to the caller, so the
// triggering business transaction is unaffected.
type Service struct {
	redis *redis.Client
	repo  *Repository
}

func New(redisAddr string, repo *Repository) *Service {
	return &Service{
		redis: redis.NewClient(&redis.Options{
			Addr: redisAddr,
		}),
		repo: repo,
	}
}

// NewWithClient is used by tests to inject a mock redis client.
func NewWithClient(client *redis.Client, repo *Repository) *Service {
	return &Service{redis: client, repo: repo}
}

func (s *Service) Close() error {
	return s.redis.Close()
}

func (s *Service) Emit(ctx context.Context, e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if e.Severity == "" {
		e.Severity = SeverityInfo
	}

	data, err := json.Marshal(e)
	if err != nil {
		logger.Errorf("Failed to marshal audit event %s: %v", e.Action, err)
		metrics.RecordAuditEvent(string(e.Action), "marshal_error")
		return
	}

	if err := s.redis.LPush(ctx, queueKey, data).Err(); err != nil {
		logger.Errorf("Failed to queue audit event %s: %v", e.Action, err)
		metrics.RecordAuditEvent(string(e.Action), "queue_error")
		return
	}

	metrics.RecordAuditEvent(string(e.Action), "queued")
}

// RecordUnauthorized implements auth.UnauthorizedRecorder.
func (s *Service) RecordUnauthorized(actorID int, ip, description string) {
	var actor *int
	if actorID != 0 {
		actor = &actorID
	}
	s.Emit(context.Background(), Event{
		Action:      ActionUnauthorizedAccess,
		ActorID:     actor,
		Description: description,
		Severity:    SeverityWarning,
		IPAddress:   ip,
	})
}

func (s *Service) Start(ctx context.Context) {
	logger.Info("Audit sink started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Audit sink stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return
	}

	var e Event
	if err := json.Unmarshal([]byte(result[1]), &e); err != nil {
		logger.Errorf("Bad audit event data: %v", err)
		return
	}

	if length, err := s.redis.LLen(ctx, queueKey).Result(); err == nil {
		metrics.AuditQueueLength.Set(float64(length))
	}

	if err := s.repo.Insert(ctx, &e); err != nil {
		logger.Errorf("Failed to persist audit event %s: %v", e.Action, err)
		metrics.RecordAuditEvent(string(e.Action), "persist_error")
		return
	}

	metrics.RecordAuditEvent(string(e.Action), "persisted")
}
