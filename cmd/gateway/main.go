package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"login-gateway/internal/config"
	"login-gateway/internal/logger"
	"login-gateway/middleware/guard"
	"login-gateway/middleware/guard/application"
	"login-gateway/middleware/guard/domain"
	"login-gateway/middleware/guard/infra"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config error")
	}
	log := logger.New(cfg.LogLevel)

	target, err := url.Parse(cfg.UpstreamURL)
	if err != nil {
		log.WithError(err).Fatal("invalid UPSTREAM_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var rdb *redis.Client
	if cfg.NeedsRedis() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		pingCancel()
		if err != nil {
			log.WithError(err).Fatal("redis ping error")
		}
	}

	// tracker de tentativas
	var attempts domain.AttemptStore
	switch cfg.AttemptStore {
	case "redis":
		attempts = infra.NewRedisAttemptStore(rdb,
			infra.WithAttemptPrefix(cfg.AttemptPrefix),
			infra.WithRedisAttemptTTL(cfg.AttemptTTL),
		)
	default:
		mem := infra.NewMemoryAttemptStore(
			infra.WithAttemptTTL(cfg.AttemptTTL),
			infra.WithAttemptSweep(cfg.AttemptSweep),
		)
		mem.StartJanitor(ctx)
		attempts = mem
	}

	// auditoria: escrita fora do caminho da requisição
	var auditWriter domain.AuditWriter
	switch cfg.AuditSink {
	case "redis":
		auditWriter = infra.NewRedisSink(rdb, infra.WithAuditKey(cfg.AuditKey))
	default:
		fs, err := infra.OpenFileSink(cfg.AuditFile)
		if err != nil {
			log.WithError(err).Fatal("audit file error")
		}
		defer func() { _ = fs.Close() }()
		auditWriter = fs
	}
	audit := infra.NewAsyncSink(auditWriter, cfg.AuditQueue, log.WithField("component", "audit"))
	defer audit.Close()

	breaker := infra.DefaultBreakerSettings("credential-verifier")
	breaker.Timeout = cfg.VerifierBreakerTimeout
	failures := cfg.VerifierBreakerFailures
	breaker.ReadyToTrip = func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= failures }
	breaker.OnStateChange = func(name string, from, to gobreaker.State) {
		log.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).Warn("circuit breaker state changed")
	}
	verifier := infra.NewHTTPVerifier(cfg.VerifierURL,
		infra.WithVerifierClient(&http.Client{Timeout: cfg.VerifierTimeout}),
		infra.WithVerifierBreaker(breaker),
	)

	// estatísticas
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	var stats infra.MultiStats
	if cfg.MetricsEnabled {
		ps, err := infra.NewPrometheusStatsStore(reg, cfg.MetricsNamespace)
		if err != nil {
			log.WithError(err).Fatal("metrics registration error")
		}
		stats = append(stats, ps)
	}
	if cfg.StatsRedis {
		stats = append(stats, infra.NewRedisStatsStore(rdb,
			infra.WithStatsPrefix(cfg.StatsPrefix),
			infra.WithStatsTTL(cfg.StatsTTL),
			infra.WithStatsBucket(cfg.StatsBucket),
			infra.WithStatsTrackKeys(cfg.StatsTrackKeys),
		))
	}

	gw := &application.Gateway{
		Shape:      application.NewShapeValidator(cfg.Surface),
		Classifier: application.NewClassifier(audit),
		Attempts: application.AttemptService{
			Store:          attempts,
			Threshold:      cfg.AttemptThreshold,
			ResetOnSuccess: cfg.AttemptResetOnSuccess,
		},
		Verifier:  verifier,
		LoginPath: cfg.LoginPath,
		Log:       log.WithField("component", "gateway"),
	}

	opts := guard.Options{
		Gateway:            gw,
		Stats:              stats,
		KeyHeader:          cfg.KeyHeader,
		TrustXForwardedFor: cfg.TrustXFF,
		MaxBodyBytes:       cfg.MaxBodyBytes,
		Log:                log.WithField("component", "http"),
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.WithError(err).WithField("path", r.URL.Path).Error("proxy error")
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.LoginPath, guard.LoginHandler(opts))
	mux.Handle("/", guard.ProceedHandler(opts, proxy))

	var h http.Handler = guard.Middleware(opts)(mux)
	if cfg.RateEnabled {
		rateStore := infra.NewRateStore(cfg.RateMax, cfg.RateWindow)
		rateStore.StartJanitor(ctx)

		retryAfter := cfg.RetryAfter
		if retryAfter <= 0 {
			// tempo até repor uma ficha
			retryAfter = cfg.RateWindow / time.Duration(cfg.RateMax)
		}
		h = guard.RateMiddleware(guard.RateOptions{
			Store:               rateStore,
			Stats:               stats,
			KeyHeader:           cfg.KeyHeader,
			TrustXForwardedFor:  cfg.TrustXFF,
			RetryAfter:          retryAfter,
			AddRateLimitHeaders: cfg.AddHeaders,
			Paths:               []string{cfg.LoginPath},
		})(h)
	}

	if cfg.ConcurrencyMax > 0 {
		pool := infra.NewChanPool(cfg.ConcurrencyMax)
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: cfg.MetricsNamespace,
			Name:      "inflight_requests",
			Help:      "Requests holding a concurrency slot",
		}, func() float64 { return float64(pool.InUse()) }))
		h = guard.ConcurrencyMiddleware(guard.ConcurrencyOptions{
			Slots:              pool,
			Wait:               cfg.ConcurrencyTimeout,
			Stats:              stats,
			KeyHeader:          cfg.KeyHeader,
			TrustXForwardedFor: cfg.TrustXFF,
		})(h)
	}
	reg.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: cfg.MetricsNamespace,
		Name:      "audit_dropped_total",
		Help:      "Audit entries dropped because the queue was full",
	}, func() float64 { return float64(audit.Dropped()) }))

	h = guard.RequestID(h)

	root := http.NewServeMux()
	if cfg.MetricsEnabled {
		root.Handle(cfg.MetricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
	root.Handle("/", h)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithFields(logrus.Fields{
		"listen":   cfg.ListenAddr,
		"upstream": target.String(),
		"verifier": cfg.VerifierURL,
		"login":    cfg.LoginPath,
	}).Info("gateway listening")
	log.WithFields(logrus.Fields{
		"threshold":        cfg.AttemptThreshold,
		"ttl":              cfg.AttemptTTL.String(),
		"store":            cfg.AttemptStore,
		"reset_on_success": cfg.AttemptResetOnSuccess,
	}).Info("attempt tracker")
	log.WithFields(logrus.Fields{
		"enabled": cfg.RateEnabled,
		"max":     cfg.RateMax,
		"window":  cfg.RateWindow.String(),
	}).Info("request rate")
	log.WithFields(logrus.Fields{"sink": cfg.AuditSink, "queue": cfg.AuditQueue}).Info("audit")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("server error")
		os.Exit(1)
	}
}
