// Package feed consumes server notification records from Kafka and hands
// them to the orchestrator.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/models"
	"github.com/cardano-foundation/veridian-wallet-sub003/pkg/platform/sentinel"
)

// Handler receives each decoded record.
type Handler func(ctx context.Context, record models.NotificationRecord)

type Config struct {
	Brokers []string
	Topic   string
	Group   string
}

// Consumer polls one topic as part of a consumer group. Offsets are
// autocommitted: a record is at most shown once per device, and the ledger
// absorbs redelivery.
type Consumer struct {
	client  *kgo.Client
	topic   string
	handler Handler
	logger  *slog.Logger
}

type Option func(*Consumer)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Consumer) {
		c.logger = logger
	}
}

func New(cfg Config, handler Handler, opts ...Option) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("feed: at least one broker is required")
	}
	if cfg.Topic == "" || cfg.Group == "" {
		return nil, errors.New("feed: topic and group are required")
	}
	if handler == nil {
		return nil, errors.New("feed: handler is required")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.Group),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	if err != nil {
		return nil, fmt.Errorf("feed: create kafka client: %w", err)
	}

	c := &Consumer{
		client:  client,
		topic:   cfg.Topic,
		handler: handler,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// EnsureTopic creates the feed topic if it does not exist yet.
func (c *Consumer) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	adm := kadm.NewClient(c.client)
	resp, err := adm.CreateTopic(ctx, partitions, replicationFactor, nil, c.topic)
	if err != nil {
		return fmt.Errorf("feed: create topic %s: %w", c.topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("feed: create topic %s: %w", c.topic, resp.Err)
	}
	return nil
}

// Run polls until ctx is cancelled or the client is closed.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.InfoContext(ctx, "notification feed started", "topic", c.topic)
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.WarnContext(ctx, "notification feed fetch failed",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})
		fetches.EachRecord(func(r *kgo.Record) {
			c.handle(ctx, r)
		})
	}
}

// Close leaves the consumer group and closes the client.
func (c *Consumer) Close() {
	c.client.Close()
}

func (c *Consumer) handle(ctx context.Context, r *kgo.Record) {
	record, err := Decode(r.Value, r.Timestamp)
	if err != nil {
		c.logger.WarnContext(ctx, "skipping malformed notification record",
			"partition", r.Partition,
			"offset", r.Offset,
			"error", err,
		)
		return
	}
	c.handler(ctx, record)
}

// Decode parses a feed message. A missing createdAt takes the broker
// timestamp.
func Decode(value []byte, timestamp time.Time) (models.NotificationRecord, error) {
	var record models.NotificationRecord
	if err := json.Unmarshal(value, &record); err != nil {
		return models.NotificationRecord{}, fmt.Errorf("decode notification record: %w", err)
	}
	if record.ID == "" {
		return models.NotificationRecord{}, fmt.Errorf("notification record without id: %w", sentinel.ErrInvalidState)
	}
	if record.Route == "" {
		return models.NotificationRecord{}, fmt.Errorf("notification record %s without route: %w", record.ID, sentinel.ErrInvalidState)
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = timestamp
	}
	return record, nil
}
