package infra

import "time"

// DoneContext é o mínimo necessário para aceitar context.Context sem importar
// context aqui.
type DoneContext interface {
	Done() <-chan struct{}
}

// runEvery chama fn a cada intervalo até o ctx encerrar.
// Intervalo <= 0 desliga a limpeza periódica.
func runEvery(ctx DoneContext, every time.Duration, fn func()) {
	if every <= 0 {
		return
	}

	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				fn()
			}
		}
	}()
}
