package domain

import (
	"context"
	"time"
)

// StatsEvent representa uma decisão do gateway (qualquer Outcome).
//
// Method/Path são strings genéricas. Cuidado com cardinalidade: gravar Key
// sem controle pode explodir o número de séries/chaves no Redis/Prometheus.
type StatsEvent struct {
	Key     Key
	Outcome Kind

	Method string
	Path   string

	At time.Time
}

// Allowed indica se a requisição seguiu adiante (proxy ou login aceito).
func (e StatsEvent) Allowed() bool {
	return e.Outcome == KindProceed || e.Outcome == KindLoginSucceeded
}

// StatsStore é a estratégia de persistência das estatísticas.
//
// Implementações podem armazenar em Redis, Prometheus, memória, etc.
// Quem chama trata erro como best-effort (não derruba request).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
