package events

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"jobhunt-aggregator/internal/errors"
	"jobhunt-aggregator/internal/logger"
)

// DefaultChannel is the Redis pub/sub channel events go to.
const DefaultChannel = "jobs:events"

type redisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher forwards events to a Redis channel so other processes can
// follow ingestion. Failures are logged and dropped.
type RedisPublisher struct {
	client  redisClient
	channel string
	timeout time.Duration
	log     *zap.SugaredLogger
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parse redis url %q", redisURL)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "redis ping")
	}
	return client, nil
}

func NewRedisPublisher(client redisClient, channel string, log *zap.SugaredLogger) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{
		client:  client,
		channel: channel,
		timeout: 2 * time.Second,
		log:     logger.OrNop(log),
	}
}

func (p *RedisPublisher) Publish(evt string) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.client.Publish(ctx, p.channel, evt).Err(); err != nil {
		p.log.Warnw("redis publish failed", "channel", p.channel, "error", err)
	}
}
