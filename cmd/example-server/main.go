package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"login-gateway/internal/logger"
	"login-gateway/middleware/guard"
	"login-gateway/middleware/guard/application"
	"login-gateway/middleware/guard/domain"
	"login-gateway/middleware/guard/infra"

	json "github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Exemplo: o guard embutido direto no webserver (sem proxy), com um
// verificador de credenciais em memória. O mesmo verificador é exposto em
// POST /verify para servir de VERIFIER_URL ao cmd/gateway.
func main() {
	st := loadSettings()
	log := logger.New(st.LogLevel)
	users := parseUsers(st.DemoUsers)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	attempts := infra.NewMemoryAttemptStore()
	attempts.StartJanitor(ctx)

	audit := infra.NewAsyncSink(infra.NewWriterSink(os.Stderr), 0, log)
	defer audit.Close()

	gw := &application.Gateway{
		Shape:      application.NewShapeValidator(domain.DefaultSurface()),
		Classifier: application.NewClassifier(audit),
		Attempts:   application.AttemptService{Store: attempts},
		Verifier:   users,
		Log:        log,
	}
	opts := guard.Options{Gateway: gw, Log: log, TrustXForwardedFor: st.TrustXFF}

	app := http.NewServeMux()
	app.Handle("/login", guard.LoginHandler(opts))
	app.HandleFunc("/signup", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("{\"message\":\"User registered successfully\"}\n"))
	})
	app.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{\"message\":\"Profile\"}\n"))
	})

	root := http.NewServeMux()
	root.Handle("/verify", verifyHandler(users, log))
	root.Handle("/", guard.Middleware(opts)(app))

	h := http.Handler(root)
	h = guard.ConcurrencyMiddleware(guard.ConcurrencyOptions{
		Max:                50,
		TrustXForwardedFor: st.TrustXFF,
	})(h)
	h = guard.RequestID(h)

	addr := st.ListenAddr
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithFields(logrus.Fields{"listen": addr, "users": len(users)}).Info("example server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("server error")
		os.Exit(1)
	}
}

// staticUsers é um domain.Verifier com usuários fixos (só para demo).
type staticUsers map[string]string

func (s staticUsers) Verify(_ context.Context, username, password string) (bool, error) {
	want, ok := s[username]
	if !ok {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(password)) == 1, nil
}

// parseUsers lê "user:pass,user2:pass2".
func parseUsers(spec string) staticUsers {
	users := staticUsers{}
	for _, pair := range strings.Split(spec, ",") {
		u, p, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if ok && u != "" {
			users[u] = p
		}
	}
	return users
}

type verifyRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// verifyHandler implementa o contrato esperado pelo infra.HTTPVerifier:
// 200 para credenciais válidas, 401 para inválidas.
func verifyHandler(v domain.Verifier, log logrus.FieldLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req verifyRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		ok, err := v.Verify(r.Context(), req.Username, req.Password)
		switch {
		case err != nil:
			log.WithError(err).Error("verify failed")
			w.WriteHeader(http.StatusInternalServerError)
		case ok:
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	})
}

// settings do exemplo. TRUST_XFF só deve ser ligado atrás de um proxy que
// sobrescreva o X-Forwarded-For; sem isso o cliente escolhe a própria chave.
type settings struct {
	ListenAddr string
	DemoUsers  string
	LogLevel   string
	TrustXFF   bool
}

func loadSettings() settings {
	v := viper.New()
	v.SetDefault("listen_addr", ":8081")
	v.SetDefault("demo_users", "alice:wonderland,bob:builder")
	v.SetDefault("log_level", "info")
	v.SetDefault("trust_xff", false)
	v.AutomaticEnv()

	return settings{
		ListenAddr: v.GetString("listen_addr"),
		DemoUsers:  v.GetString("demo_users"),
		LogLevel:   v.GetString("log_level"),
		TrustXFF:   v.GetBool("trust_xff"),
	}
}
