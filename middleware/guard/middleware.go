package guard

import (
	"net/http"
	"time"

	"login-gateway/middleware/guard/application"
	"login-gateway/middleware/guard/domain"

	"github.com/sirupsen/logrus"
)

// Options configura o middleware de triagem e o LoginHandler.
type Options struct {
	Gateway            *application.Gateway
	Stats              domain.StatsStore
	KeyFn              KeyFunc
	KeyHeader          string
	TrustXForwardedFor bool
	MaxBodyBytes       int64
	Log                logrus.FieldLogger
}

func (o *Options) defaults() {
	if o.KeyFn == nil {
		o.KeyFn = DefaultKeyFunc(o.KeyHeader, o.TrustXForwardedFor)
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if o.Log == nil {
		o.Log = logrus.StandardLogger()
	}
}

// Middleware faz a triagem sem estado (formato, campos obrigatórios,
// classificação). Requisições aprovadas seguem para next com o descritor
// no contexto; as demais recebem a resposta JSON do Outcome.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	opts.defaults()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d, o := screen(opts, r)
			if !o.Proceed() {
				record(opts, r, d.Identity, o)
				writeOutcome(w, o)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithDescriptor(r.Context(), d)))
		})
	}
}

// LoginHandler decide a tentativa de login: tracker, colaborador de
// credenciais e atualização do tracker. Atrás do Middleware reaproveita
// o descritor triado; sozinho, roda o pipeline completo.
func LoginHandler(opts Options) http.Handler {
	opts.defaults()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var o domain.Outcome
		d, ok := DescriptorFrom(r.Context())

		func() {
			defer recoverInto(opts, &o)
			if !ok {
				if d, o = screen(opts, r); !o.Proceed() {
					return
				}
			}
			o = opts.Gateway.Authenticate(r.Context(), d.Identity, d.Fields["username"], d.Fields["password"])
		}()

		record(opts, r, d.Identity, o)
		writeOutcome(w, o)
	})
}

// ProceedHandler registra a passagem para o upstream.
func ProceedHandler(opts Options, next http.Handler) http.Handler {
	opts.defaults()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, _ := DescriptorFrom(r.Context())
		record(opts, r, d.Identity, domain.Proceed())
		next.ServeHTTP(w, r)
	})
}

func screen(opts Options, r *http.Request) (d domain.Descriptor, o domain.Outcome) {
	defer recoverInto(opts, &o)

	if opts.Gateway == nil {
		return d, domain.Reject(domain.KindUnavailable)
	}

	d, err := Describe(r, opts.KeyFn(r), opts.MaxBodyBytes)
	if err != nil {
		// rota/método inválidos têm precedência sobre o body
		if g := opts.Gateway.Shape; g != nil {
			if o := g.Validate(d); !o.Proceed() {
				return d, o
			}
		}
		opts.Log.WithError(err).WithField("identity", d.Identity).Debug("unreadable request body")
		return d, domain.Reject(domain.KindMalformedBody)
	}
	return d, opts.Gateway.Screen(d)
}

// recoverInto converte panic no pipeline em Unavailable.
func recoverInto(opts Options, o *domain.Outcome) {
	if p := recover(); p != nil {
		opts.Log.WithField("panic", p).Error("gateway pipeline panicked")
		*o = domain.Reject(domain.KindUnavailable)
	}
}

func record(opts Options, r *http.Request, key domain.Key, o domain.Outcome) {
	entry := opts.Log.WithFields(logrus.Fields{
		"identity": key,
		"method":   r.Method,
		"path":     r.URL.Path,
		"outcome":  o.Kind.String(),
	})
	if id := RequestIDFrom(r.Context()); id != "" {
		entry = entry.WithField("request_id", id)
	}
	if o.Proceed() || o.Kind == domain.KindLoginSucceeded {
		entry.Debug("request admitted")
	} else {
		entry.WithField("reason", o.Error()).Info("request rejected")
	}

	if opts.Stats == nil {
		return
	}
	if err := opts.Stats.Record(r.Context(), domain.StatsEvent{
		Key:     key,
		Outcome: o.Kind,
		Method:  r.Method,
		Path:    r.URL.Path,
		At:      time.Now(),
	}); err != nil {
		entry.WithError(err).Warn("stats record failed")
	}
}
