package infra

import (
	"context"
	"sync"
	"time"

	"login-gateway/middleware/guard/domain"
)

const (
	DefaultAttemptTTL   = 1 * time.Hour
	DefaultAttemptSweep = 10 * time.Minute
)

// MemoryAttemptStore é o contador de falhas em memória com TTL.
//
// Janela fixa: expiresAt é definido na primeira falha e não muda até expirar.
// Registros expirados valem 0 e são removidos no acesso ou pelo janitor, então
// a memória fica limitada às identidades ativas dentro do TTL.
type MemoryAttemptStore struct {
	mu         sync.Mutex
	entries    map[domain.Key]*attemptEntry
	ttl        time.Duration
	sweepEvery time.Duration
	now        func() time.Time
}

type attemptEntry struct {
	count     int
	expiresAt time.Time
}

type MemoryAttemptOption func(*MemoryAttemptStore)

func WithAttemptTTL(d time.Duration) MemoryAttemptOption {
	return func(s *MemoryAttemptStore) { s.ttl = d }
}

func WithAttemptSweep(d time.Duration) MemoryAttemptOption {
	return func(s *MemoryAttemptStore) { s.sweepEvery = d }
}

// WithAttemptClock injeta o relógio (testes).
func WithAttemptClock(now func() time.Time) MemoryAttemptOption {
	return func(s *MemoryAttemptStore) { s.now = now }
}

func NewMemoryAttemptStore(opts ...MemoryAttemptOption) *MemoryAttemptStore {
	s := &MemoryAttemptStore{
		entries:    make(map[domain.Key]*attemptEntry),
		ttl:        DefaultAttemptTTL,
		sweepEvery: DefaultAttemptSweep,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// live retorna o registro não expirado; o expirado é removido.
// Chamar com s.mu travado.
func (s *MemoryAttemptStore) live(id domain.Key, now time.Time) *attemptEntry {
	ent, ok := s.entries[id]
	if !ok {
		return nil
	}
	if !now.Before(ent.expiresAt) {
		delete(s.entries, id)
		return nil
	}
	return ent
}

func (s *MemoryAttemptStore) Get(_ context.Context, id domain.Key) (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if ent := s.live(id, now); ent != nil {
		return ent.count, nil
	}
	return 0, nil
}

func (s *MemoryAttemptStore) Increment(_ context.Context, id domain.Key) (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if ent := s.live(id, now); ent != nil {
		ent.count++
		return ent.count, nil
	}
	s.entries[id] = &attemptEntry{count: 1, expiresAt: now.Add(s.ttl)}
	return 1, nil
}

func (s *MemoryAttemptStore) Reset(_ context.Context, id domain.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// Len retorna quantos registros estão em memória (inclui expirados ainda
// não varridos).
func (s *MemoryAttemptStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep remove todos os registros expirados.
func (s *MemoryAttemptStore) Sweep() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, ent := range s.entries {
		if !now.Before(ent.expiresAt) {
			delete(s.entries, id)
		}
	}
}

// StartJanitor roda Sweep periodicamente até o ctx encerrar.
func (s *MemoryAttemptStore) StartJanitor(ctx DoneContext) {
	runEvery(ctx, s.sweepEvery, s.Sweep)
}
