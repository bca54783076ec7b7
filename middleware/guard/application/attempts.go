package application

import (
	"context"

	"login-gateway/middleware/guard/domain"
)

// DefaultThreshold é o número de falhas a partir do qual o cliente é barrado.
const DefaultThreshold = 3

// AttemptService aplica a regra de admissão sobre o AttemptStore.
//
// Controle grosseiro, single-process, best-effort: um atacante que troca de
// identidade escapa dele. Isso é uma limitação aceita.
type AttemptService struct {
	Store     domain.AttemptStore
	Threshold int
	// ResetOnSuccess apaga o contador após um login aceito.
	// Desligado por padrão: a expiração é o único reset.
	ResetOnSuccess bool
}

func (s AttemptService) threshold() int {
	if s.Threshold <= 0 {
		return DefaultThreshold
	}
	return s.Threshold
}

// Admit diz se a identidade ainda pode tentar autenticar.
func (s AttemptService) Admit(ctx context.Context, id domain.Key) (bool, error) {
	if s.Store == nil {
		return true, nil
	}
	n, err := s.Store.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return n < s.threshold(), nil
}

func (s AttemptService) RecordFailure(ctx context.Context, id domain.Key) (int, error) {
	if s.Store == nil {
		return 0, nil
	}
	return s.Store.Increment(ctx, id)
}

func (s AttemptService) RecordSuccess(ctx context.Context, id domain.Key) error {
	if s.Store == nil || !s.ResetOnSuccess {
		return nil
	}
	return s.Store.Reset(ctx, id)
}
