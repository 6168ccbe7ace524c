package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/models"
	"github.com/cardano-foundation/veridian-wallet-sub003/pkg/platform/sentinel"
)

const redisKeyPrefix = "veridian:record:"

// RedisStore persists records as JSON strings under a prefixed key.
type RedisStore struct {
	client *redis.Client
	prefix string
}

type RedisOption func(*RedisStore)

// WithKeyPrefix namespaces keys, e.g. per wallet installation.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: redisKeyPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

type redisRecord struct {
	ID        string          `json:"id"`
	Content   json.RawMessage `json:"content"`
	UpdatedAt int64           `json:"updated_at"`
}

func (s *RedisStore) FindByID(ctx context.Context, id string) (*models.Record, error) {
	raw, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("record %q: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w: %w", sentinel.ErrUnavailable, err)
	}

	var stored redisRecord
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode record: %w: %w", sentinel.ErrInvalidState, err)
	}
	return &models.Record{
		ID:        stored.ID,
		Content:   []byte(stored.Content),
		UpdatedAt: time.UnixMilli(stored.UpdatedAt).UTC(),
	}, nil
}

func (s *RedisStore) Save(ctx context.Context, record *models.Record) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("record id is required")
	}
	content := json.RawMessage(record.Content)
	if len(content) == 0 {
		content = json.RawMessage("null")
	}
	raw, err := json.Marshal(redisRecord{
		ID:        record.ID,
		Content:   content,
		UpdatedAt: record.UpdatedAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+record.ID, raw, 0).Err(); err != nil {
		return fmt.Errorf("set record: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) DeleteByID(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.prefix+id).Err(); err != nil {
		return fmt.Errorf("delete record: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}
