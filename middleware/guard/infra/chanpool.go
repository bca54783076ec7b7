package infra

import "context"

// ChanPool é um semáforo baseado em channel; implementa domain.Slots.
type ChanPool struct {
	sem chan struct{}
}

// NewChanPool cria o semáforo com capacidade max.
func NewChanPool(max int) *ChanPool {
	return &ChanPool{sem: make(chan struct{}, max)}
}

func (p *ChanPool) Take(ctx context.Context) (func(), bool) {
	select {
	case p.sem <- struct{}{}:
		return func() { <-p.sem }, true
	case <-ctx.Done():
		return nil, false
	}
}

// InUse retorna quantas vagas estão ocupadas agora (usado pelo gauge).
func (p *ChanPool) InUse() int { return len(p.sem) }

func (p *ChanPool) Cap() int { return cap(p.sem) }
