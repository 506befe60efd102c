package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/findmeajob/findmeajob-backend/internal/pkg/logger"
)

// JobNotifier publishes background job status transitions so other
// processes (or a frontend bridge) can react without polling.
type JobNotifier interface {
	Publish(ctx context.Context, jobID string, agentID int64, status string) error
	Close() error
}

type JobStatusEvent struct {
	JobID   string `json:"job_id"`
	AgentID int64  `json:"agent_id"`
	Status  string `json:"status"`
}

type redisJobNotifier struct {
	log     *logger.Logger
	rdb     *redis.Client
	channel string
}

// NewJobNotifier connects to Redis when REDIS_ADDR is set; without it a
// no-op notifier is returned so job execution never depends on Redis.
func NewJobNotifier(log *logger.Logger) (JobNotifier, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return noopJobNotifier{}, nil
	}
	ch := strings.TrimSpace(os.Getenv("REDIS_JOBS_CHANNEL"))
	if ch == "" {
		ch = "jobs:status"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisJobNotifier{
		log:     log.With("service", "RedisJobNotifier"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (n *redisJobNotifier) Publish(ctx context.Context, jobID string, agentID int64, status string) error {
	raw, err := json.Marshal(JobStatusEvent{JobID: jobID, AgentID: agentID, Status: status})
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, n.channel, raw).Err()
}

func (n *redisJobNotifier) Close() error {
	return n.rdb.Close()
}

type noopJobNotifier struct{}

func (noopJobNotifier) Publish(context.Context, string, int64, string) error { return nil }
func (noopJobNotifier) Close() error                                         { return nil }
