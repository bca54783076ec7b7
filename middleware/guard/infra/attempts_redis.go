package infra

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"login-gateway/middleware/guard/domain"

	"github.com/redis/go-redis/v9"
)

// RedisAttemptStore guarda o contador de falhas no Redis, para que várias
// instâncias do gateway compartilhem o mesmo orçamento por identidade.
//
// INCR e PEXPIRE rodam juntos num script Lua (atômico no servidor). O TTL
// só é aplicado quando a chave não tem um: janela fixa, mesma semântica do
// store em memória, e uma chave que ficou sem TTL recebe um no próximo INCR.
type RedisAttemptStore struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

type RedisAttemptOption func(*RedisAttemptStore)

func WithAttemptPrefix(prefix string) RedisAttemptOption {
	return func(s *RedisAttemptStore) { s.prefix = strings.Trim(prefix, ":") }
}

func WithRedisAttemptTTL(d time.Duration) RedisAttemptOption {
	return func(s *RedisAttemptStore) { s.ttl = d }
}

func NewRedisAttemptStore(rdb redis.UniversalClient, opts ...RedisAttemptOption) *RedisAttemptStore {
	s := &RedisAttemptStore{
		rdb:    rdb,
		prefix: "loginguard:attempts",
		ttl:    DefaultAttemptTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ttl <= 0 {
		s.ttl = DefaultAttemptTTL
	}
	return s
}

func (s *RedisAttemptStore) key(id domain.Key) string {
	return s.prefix + ":" + string(id)
}

func (s *RedisAttemptStore) Get(ctx context.Context, id domain.Key) (int, error) {
	n, err := s.rdb.Get(ctx, s.key(id)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis attempts get: %w", err)
	}
	return n, nil
}

// KEYS[1] = contador, ARGV[1] = janela em ms.
var incrWithWindow = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if redis.call('PTTL', KEYS[1]) < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

func (s *RedisAttemptStore) Increment(ctx context.Context, id domain.Key) (int, error) {
	n, err := incrWithWindow.Run(ctx, s.rdb, []string{s.key(id)}, s.ttl.Milliseconds()).Int()
	if err != nil {
		return 0, fmt.Errorf("redis attempts incr: %w", err)
	}
	return n, nil
}

func (s *RedisAttemptStore) Reset(ctx context.Context, id domain.Key) error {
	if err := s.rdb.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("redis attempts del: %w", err)
	}
	return nil
}
