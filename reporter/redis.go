package reporter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisPublisher publishes every report to a Redis channel and each
// opportunity to a per token channel
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
	logger  *zap.Logger
}

// RedisOptions configures the publisher connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// NewRedisPublisher connects to Redis and checks the connection
func NewRedisPublisher(ctx context.Context, opts RedisOptions, logger *zap.Logger) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return NewRedisPublisherWithClient(client, opts.Channel, logger), nil
}

func NewRedisPublisherWithClient(client redis.UniversalClient, channel string, logger *zap.Logger) *RedisPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPublisher{client: client, channel: channel, logger: logger}
}

// TokenChannel is the channel receiving the opportunities of one token
func (p *RedisPublisher) TokenChannel(token string) string {
	return fmt.Sprintf("%s:token:%s", p.channel, token)
}

func (p *RedisPublisher) Report(ctx context.Context, r *Report) error {
	payload := NewPayload(r)
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	pipe := p.client.Pipeline()
	pipe.Publish(ctx, p.channel, data)
	for _, opp := range payload.Opportunities {
		oppData, err := json.Marshal(opp)
		if err != nil {
			return fmt.Errorf("failed to encode opportunity: %w", err)
		}
		pipe.Publish(ctx, p.TokenChannel(opp.Token), oppData)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish report: %w", err)
	}
	p.logger.Debug("Published report",
		zap.String("channel", p.channel),
		zap.Uint64("cycle", r.Cycle),
		zap.Int("opportunities", len(payload.Opportunities)))
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
