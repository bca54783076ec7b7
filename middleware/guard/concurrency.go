package guard

import (
	"net/http"
	"time"

	"login-gateway/middleware/guard/application"
	"login-gateway/middleware/guard/domain"
	"login-gateway/middleware/guard/infra"
)

type ConcurrencyOptions struct {
	// Slots permite compartilhar o semáforo (ex.: para expor uso em métricas).
	// Se nil, um pool de Max vagas é criado.
	Slots              domain.Slots
	Max                int
	Wait               time.Duration
	Stats              domain.StatsStore
	KeyFn              KeyFunc
	KeyHeader          string
	TrustXForwardedFor bool
}

// ConcurrencyMiddleware limita requisições simultâneas; sem vaga dentro de
// Wait responde Busy (503 {"message": ...}) e registra o resultado.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	slots := opts.Slots
	if slots == nil {
		if opts.Max <= 0 {
			return func(next http.Handler) http.Handler { return next }
		}
		slots = infra.NewChanPool(opts.Max)
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}

	capacity := application.Capacity{Slots: slots, Wait: opts.Wait}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, a := capacity.Enter(r.Context())
			defer release()
			if !a.Admitted() {
				recordAdmission(r, opts.Stats, domain.Key(opts.KeyFn(r)), a.Outcome)
				writeOutcome(w, a.Outcome)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
