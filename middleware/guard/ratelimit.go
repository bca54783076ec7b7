package guard

import (
	"net/http"
	"time"

	"login-gateway/middleware/guard/application"
	"login-gateway/middleware/guard/domain"
)

// RateOptions configura o limite de taxa de requisições.
type RateOptions struct {
	Store               domain.BucketStore
	Stats               domain.StatsStore
	KeyFn               KeyFunc
	KeyHeader           string
	TrustXForwardedFor  bool
	RetryAfter          time.Duration
	AddRateLimitHeaders bool
	// Paths restringe o limite a estas rotas (vazio = todas).
	Paths []string
}

type rateInfo interface {
	RPS() float64
	Burst() int
}

// RateMiddleware responde 429 {"message": ...} quando a chave esgota o
// bucket. Roda antes da triagem.
func RateMiddleware(opts RateOptions) func(next http.Handler) http.Handler {
	if opts.RetryAfter == 0 {
		opts.RetryAfter = 1 * time.Second
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}
	limited := make(map[string]bool, len(opts.Paths))
	for _, p := range opts.Paths {
		limited[p] = true
	}

	rr := application.RequestRate{
		Store:      opts.Store,
		RetryAfter: opts.RetryAfter,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(limited) > 0 && !limited[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			key := opts.KeyFn(r)

			if opts.AddRateLimitHeaders {
				w.Header().Set("X-RateLimit-Key", key)
				if ri, ok := opts.Store.(rateInfo); ok {
					w.Header().Set("X-RateLimit-RPS", formatFloat(ri.RPS()))
					w.Header().Set("X-RateLimit-Burst", formatInt(ri.Burst()))
				}
			}

			a := rr.Admit(domain.Key(key))
			if a.Admitted() {
				next.ServeHTTP(w, r)
				return
			}

			recordAdmission(r, opts.Stats, domain.Key(key), a.Outcome)
			secs := int(a.RetryAfter.Seconds())
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", formatInt(secs))
			writeOutcome(w, a.Outcome)
		})
	}
}

// recordAdmission registra a recusa de um estágio anterior à triagem.
func recordAdmission(r *http.Request, stats domain.StatsStore, key domain.Key, o domain.Outcome) {
	if stats == nil {
		return
	}
	_ = stats.Record(r.Context(), domain.StatsEvent{
		Key:     key,
		Outcome: o.Kind,
		Method:  r.Method,
		Path:    r.URL.Path,
		At:      time.Now(),
	})
}
