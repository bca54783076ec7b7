package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"login-gateway/middleware/guard/domain"

	"github.com/redis/go-redis/v9"
)

// RedisSink grava cada entrada (mesma linha do FileSink, sem o \n) no fim de
// uma lista do Redis. RPUSH é atômico por entrada. A lista só cresce:
// retenção fica a cargo de um processo externo.
type RedisSink struct {
	rdb     redis.UniversalClient
	key     string
	timeout time.Duration
}

type RedisSinkOption func(*RedisSink)

func WithAuditKey(key string) RedisSinkOption {
	return func(s *RedisSink) { s.key = strings.Trim(key, ":") }
}

func WithAuditTimeout(d time.Duration) RedisSinkOption {
	return func(s *RedisSink) { s.timeout = d }
}

func NewRedisSink(rdb redis.UniversalClient, opts ...RedisSinkOption) *RedisSink {
	s := &RedisSink{
		rdb:     rdb,
		key:     "loginguard:audit",
		timeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisSink) Write(e domain.AuditEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	line := strings.TrimSuffix(e.Line(), "\n")

	if err := s.rdb.RPush(ctx, s.key, line).Err(); err != nil {
		return fmt.Errorf("redis audit push: %w", err)
	}
	return nil
}
