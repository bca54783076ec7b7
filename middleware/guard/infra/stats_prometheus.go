package infra

import (
	"context"

	"login-gateway/middleware/guard/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusStatsStore expõe as decisões como contador:
//
//	loginguard_decisions_total{outcome, method, path}
//
// Path vem da superfície configurada (cardinalidade baixa); a identidade
// nunca vira label.
type PrometheusStatsStore struct {
	decisions *prometheus.CounterVec
}

func NewPrometheusStatsStore(reg prometheus.Registerer, namespace string) (*PrometheusStatsStore, error) {
	if namespace == "" {
		namespace = "loginguard"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	decisions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Gateway decisions by outcome and route",
		},
		[]string{"outcome", "method", "path"},
	)
	if err := reg.Register(decisions); err != nil {
		return nil, err
	}
	return &PrometheusStatsStore{decisions: decisions}, nil
}

func (s *PrometheusStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.decisions.WithLabelValues(ev.Outcome.String(), ev.Method, ev.Path).Inc()
	return nil
}

// MultiStats repassa o evento para vários stores; o primeiro erro é
// devolvido, mas todos são chamados.
type MultiStats []domain.StatsStore

func (m MultiStats) Record(ctx context.Context, ev domain.StatsEvent) error {
	var first error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
