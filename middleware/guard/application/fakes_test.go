package application

import (
	"context"
	"errors"
	"sync"

	"login-gateway/middleware/guard/domain"
)

type memAttempts struct {
	mu     sync.Mutex
	counts map[domain.Key]int
	err    error
}

func newMemAttempts() *memAttempts {
	return &memAttempts{counts: make(map[domain.Key]int)}
}

func (m *memAttempts) Get(_ context.Context, id domain.Key) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	return m.counts[id], nil
}

func (m *memAttempts) Increment(_ context.Context, id domain.Key) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.counts[id]++
	return m.counts[id], nil
}

func (m *memAttempts) Reset(_ context.Context, id domain.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.counts, id)
	return nil
}

type fakeVerifier struct {
	user, pass string
	err        error
	calls      int
}

func (f *fakeVerifier) Verify(_ context.Context, username, password string) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return username == f.user && password == f.pass, nil
}

// gatedVerifier segura cada chamada até gate fechar; entered avisa a chegada.
type gatedVerifier struct {
	gate    chan struct{}
	entered chan struct{}
}

func (g *gatedVerifier) Verify(_ context.Context, _, _ string) (bool, error) {
	g.entered <- struct{}{}
	<-g.gate
	return false, nil
}

type recordingSink struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (s *recordingSink) Record(e domain.AuditEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

func (s *recordingSink) Entries() []domain.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuditEntry(nil), s.entries...)
}

var errStoreDown = errors.New("store down")
