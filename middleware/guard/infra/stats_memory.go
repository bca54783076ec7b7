package infra

import (
	"context"
	"sync"

	"login-gateway/middleware/guard/domain"
)

// MemoryStatsStore conta decisões em memória, por resultado e por rota.
// Útil para testes e desenvolvimento: não expira nada.
type MemoryStatsStore struct {
	mu        sync.Mutex
	byOutcome map[domain.Kind]int64
	byRoute   map[string]map[domain.Kind]int64
	byKey     map[domain.Key]int64

	trackKeys bool
}

type MemoryStatsOption func(*MemoryStatsStore)

// WithTrackKeys conta também rejeições por identidade (alta cardinalidade).
func WithTrackKeys(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackKeys = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byOutcome: make(map[domain.Kind]int64),
		byRoute:   make(map[string]map[domain.Kind]int64),
		byKey:     make(map[domain.Key]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	route := ev.Method + " " + ev.Path

	s.mu.Lock()
	defer s.mu.Unlock()

	s.byOutcome[ev.Outcome]++
	r := s.byRoute[route]
	if r == nil {
		r = make(map[domain.Kind]int64)
		s.byRoute[route] = r
	}
	r[ev.Outcome]++
	if s.trackKeys && !ev.Allowed() {
		s.byKey[ev.Key]++
	}
	return nil
}

func (s *MemoryStatsStore) Count(k domain.Kind) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byOutcome[k]
}

func (s *MemoryStatsStore) ByRoute(route string) map[domain.Kind]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.Kind]int64, len(s.byRoute[route]))
	for k, v := range s.byRoute[route] {
		out[k] = v
	}
	return out
}

// RejectedByKey retorna quantas rejeições cada identidade acumulou.
func (s *MemoryStatsStore) RejectedByKey() map[domain.Key]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.Key]int64, len(s.byKey))
	for k, v := range s.byKey {
		out[k] = v
	}
	return out
}
