package payment

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// PendingSale is a staged walk-in sale awaiting staff confirmation.
// It lives in redis under a token with a TTL, never in session state;
// an unconfirmed sale simply evaporates.
type PendingSale struct {
	PlanID         int       `json:"plan_id"`
	PassName       string    `json:"pass_name"`
	CustomerName   *string   `json:"customer_name,omitempty"`
	MobileNo       *string   `json:"mobile_no,omitempty"`
	AmountCentavos int64     `json:"amount_centavos"`
	Method         Method    `json:"method"`
	ReferenceNo    *string   `json:"reference_no,omitempty"`
	StagedBy       int       `json:"staged_by"`
	StagedAt       time.Time `json:"staged_at"`
}

var ErrPendingNotFound = errors.New("pending sale not found or expired")

type PendingStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewPendingStore(client *redis.Client, ttl time.Duration) *PendingStore {
	return &PendingStore{redis: client, ttl: ttl}
}

func pendingKey(token string) string {
	return "pending_walkin:" + token
}

func (s *PendingStore) Stage(ctx context.Context, sale PendingSale) (string, error) {
	sale.StagedAt = time.Now()

	data, err := json.Marshal(sale)
	if err != nil {
		return "", err
	}

	token := uuid.NewString()
	if err := s.redis.Set(ctx, pendingKey(token), data, s.ttl).Err(); err != nil {
		return "", err
	}

	return token, nil
}

func (s *PendingStore) Get(ctx context.Context, token string) (*PendingSale, error) {
	data, err := s.redis.Get(ctx, pendingKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrPendingNotFound
	}
	if err != nil {
		return nil, err
	}

	sale := &PendingSale{}
	if err := json.Unmarshal(data, sale); err != nil {
		return nil, err
	}

	return sale, nil
}

// Take consumes the staged sale so a double confirm cannot record the
// payment twice.
func (s *PendingStore) Take(ctx context.Context, token string) (*PendingSale, error) {
	data, err := s.redis.GetDel(ctx, pendingKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrPendingNotFound
	}
	if err != nil {
		return nil, err
	}

	sale := &PendingSale{}
	if err := json.Unmarshal(data, sale); err != nil {
		return nil, err
	}

	return sale, nil
}

func (s *PendingStore) Discard(ctx context.Context, token string) error {
	deleted, err := s.redis.Del(ctx, pendingKey(token)).Result()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrPendingNotFound
	}
	return nil
}
