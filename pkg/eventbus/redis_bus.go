package eventbus

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/waveline/waveline/pkg/logger"
)

// RedisConfig holds Redis event bus configuration.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	WriteTimeout time.Duration
}

// RedisBus publishes commit events over Redis pub/sub so out-of-process
// consumers can follow the waveform stream.
type RedisBus struct {
	client *redis.Client
	log    logger.Logger
}

// NewRedisBus creates a Redis-backed event bus and verifies connectivity.
func NewRedisBus(ctx context.Context, cfg RedisConfig, log logger.Logger) (*RedisBus, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("eventbus: redis addr cannot be empty")
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("eventbus: redis ping: %w", err)
	}
	if log == nil {
		log = logger.Global()
	}
	return &RedisBus{client: client, log: log}, nil
}

// Publish publishes the payload on the given subject as a Redis pub/sub
// channel. Delivery is at-most-once, matching the in-memory bus.
func (b *RedisBus) Publish(ctx context.Context, subject string, payload []byte) error {
	if subject == "" {
		return fmt.Errorf("eventbus: subject cannot be empty")
	}
	if err := b.client.Publish(ctx, subject, payload).Err(); err != nil {
		return fmt.Errorf("eventbus: redis publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe opens a pattern subscription ("waveform.batch.*" style globs are
// translated to Redis patterns) and forwards messages until ctx is done.
func (b *RedisBus) Subscribe(ctx context.Context, pattern string, buffer int) (<-chan Message, error) {
	if pattern == "" {
		return nil, fmt.Errorf("eventbus: subscription pattern cannot be empty")
	}
	if buffer <= 0 {
		buffer = 32
	}
	sub := b.client.PSubscribe(ctx, pattern)
	out := make(chan Message, buffer)

	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				m := Message{
					Subject:   msg.Channel,
					Payload:   []byte(msg.Payload),
					Timestamp: time.Now().UTC(),
				}
				select {
				case out <- m:
				default:
					b.log.Warn("redis subscriber lagging, dropping message", "subject", msg.Channel)
				}
			}
		}
	}()

	return out, nil
}

// Close releases the underlying Redis client.
func (b *RedisBus) Close() error {
	return b.client.Close()
}
