// Package kafkaconsumer drops cached weather entries when upstream feed
// refreshes are announced on a Kafka topic.
package kafkaconsumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"github.com/atmoscope/atmoscope/internal/cache"
	"github.com/atmoscope/atmoscope/internal/invalidation"
	"github.com/atmoscope/atmoscope/internal/observability"
)

type Consumer struct {
	cfg    Config
	logger *slog.Logger
	store  cache.Store
}

func New(cfg Config, logger *slog.Logger, store cache.Store) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{cfg: cfg, logger: logger.With("component", "feed_consumer"), store: store}
}

// Start joins the consumer group and processes events until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	if c.store == nil {
		return errors.New("kafkaconsumer: missing cache store")
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0
	cfg.Consumer.Group.Session.Timeout = c.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = c.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = c.cfg.RebalanceTimeout
	if c.cfg.InitialOffsetOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Offsets.AutoCommit.Enable = true

	group, err := sarama.NewConsumerGroup(c.cfg.Brokers, c.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	defer func() { _ = group.Close() }()

	handler := &groupHandler{process: c.ProcessOne}

	c.logger.Info("feed invalidation consumer starting",
		"brokers", c.cfg.Brokers, "topic", c.cfg.Topic, "group", c.cfg.GroupID)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("feed invalidation consumer shutting down")
			return nil
		default:
			if err := group.Consume(ctx, []string{c.cfg.Topic}, handler); err != nil {
				c.logger.Error("consumer error",
					"brokers", c.cfg.Brokers, "topic", c.cfg.Topic, "err", err)
				time.Sleep(2 * time.Second)
			}
		}
	}
}

// ProcessOne handles a single feed-update message.
func (c *Consumer) ProcessOne(ctx context.Context, msg *sarama.ConsumerMessage) error {
	start := time.Now()

	var ev invalidation.Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		observability.ObserveInvalidation("decode", time.Since(start), err)
		c.logger.Error("feed event decode failed",
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "err", err)
		return fmt.Errorf("json decode: %w", err)
	}

	if err := ev.Validate(); err != nil {
		observability.ObserveInvalidation(ev.Kind, time.Since(start), err)
		// malformed events are logged and skipped, not retried
		c.logger.Warn("invalid feed event skipped", "kind", ev.Kind, "err", err)
		return nil
	}

	keys := ev.Keys()
	if err := c.store.Del(ctx, keys...); err != nil {
		observability.ObserveInvalidation(ev.Kind, time.Since(start), err)
		c.logger.Error("feed invalidation delete failed",
			"kind", ev.Kind, "topic", msg.Topic, "keys", len(keys), "err", err)
		return fmt.Errorf("store del: %w", err)
	}

	observability.ObserveInvalidation(ev.Kind, time.Since(start), nil)
	c.logger.Info("invalidated keys", "kind", ev.Kind, "keys", len(keys))

	return nil
}
