package infra

import (
	"sync"
	"time"

	"login-gateway/middleware/guard/domain"

	"golang.org/x/time/rate"
)

// RateStore limita requisições por chave com token bucket (x/time/rate).
//
// A configuração é expressa como "N requisições por janela" (ex.: 5 a cada
// 15 minutos no /login): o bucket começa cheio com N fichas e repõe uma a
// cada janela/N. Chaves ociosas são removidas pelo janitor.
type RateStore struct {
	mu           sync.Mutex
	entries      map[string]*rateEntry
	limit        rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
	now          func() time.Time
}

type rateEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type RateStoreOption func(*RateStore)

func WithIdleTTL(d time.Duration) RateStoreOption {
	return func(s *RateStore) { s.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) RateStoreOption {
	return func(s *RateStore) { s.cleanupEvery = d }
}

func WithRateClock(now func() time.Time) RateStoreOption {
	return func(s *RateStore) { s.now = now }
}

// NewRateStore cria o store para max requisições a cada window.
func NewRateStore(max int, window time.Duration, opts ...RateStoreOption) *RateStore {
	if max <= 0 {
		max = 1
	}
	lim := rate.Inf
	if window > 0 {
		lim = rate.Every(window / time.Duration(max))
	}
	s := &RateStore{
		entries:      make(map[string]*rateEntry),
		limit:        lim,
		burst:        max,
		idleTTL:      window,
		cleanupEvery: 2 * time.Minute,
		now:          time.Now,
	}
	if s.idleTTL <= 0 {
		s.idleTTL = 15 * time.Minute
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RateStore) RPS() float64 { return float64(s.limit) }
func (s *RateStore) Burst() int   { return s.burst }

// Bucket implementa domain.BucketStore.
func (s *RateStore) Bucket(key domain.Key) domain.Bucket {
	return s.limiter(string(key))
}

func (s *RateStore) limiter(key string) *rate.Limiter {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(s.limit, s.burst)
	s.entries[key] = &rateEntry{lim: lim, lastSeen: now}
	return lim
}

// Len retorna o número de chaves em cache.
func (s *RateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Cleanup remove chaves sem uso há mais de idleTTL. Depois de idleTTL o
// bucket já estaria cheio de novo, então descartar não muda a decisão.
func (s *RateStore) Cleanup() {
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor inicia a limpeza periódica. Pare cancelando o contexto.
func (s *RateStore) StartJanitor(ctx DoneContext) {
	runEvery(ctx, s.cleanupEvery, s.Cleanup)
}
