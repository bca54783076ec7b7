// Package config carrega a configuração do gateway a partir de variáveis de
// ambiente (viper.AutomaticEnv) e, opcionalmente, de um YAML com a
// superfície de rotas aceitas.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"login-gateway/middleware/guard/domain"

	"github.com/spf13/viper"
)

type Config struct {
	ListenAddr  string
	UpstreamURL string
	LoginPath   string
	LogLevel    string

	KeyHeader string
	TrustXFF  bool

	RateEnabled bool
	RateMax     int
	RateWindow  time.Duration
	RetryAfter  time.Duration
	AddHeaders  bool

	ConcurrencyMax     int
	ConcurrencyTimeout time.Duration

	AttemptStore          string // memory | redis
	AttemptThreshold      int
	AttemptTTL            time.Duration
	AttemptSweep          time.Duration
	AttemptPrefix         string
	AttemptResetOnSuccess bool

	AuditSink  string // file | redis
	AuditFile  string
	AuditKey   string
	AuditQueue int

	VerifierURL             string
	VerifierTimeout         time.Duration
	VerifierBreakerFailures uint32
	VerifierBreakerTimeout  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	StatsRedis     bool
	StatsPrefix    string
	StatsTTL       time.Duration
	StatsBucket    string
	StatsTrackKeys bool

	MetricsEnabled   bool
	MetricsPath      string
	MetricsNamespace string

	MaxBodyBytes int64

	Surface domain.Surface
}

var defaults = map[string]any{
	"listen_addr":  ":8080",
	"upstream_url": "",
	"login_path":   "/login",
	"log_level":    "info",

	"rate_key_header": "",
	"trust_xff":       false,

	"rate_enabled":          true,
	"rate_max":              5,
	"rate_window":           15 * time.Minute,
	"retry_after":           0,
	"add_ratelimit_headers": false,

	"concurrency_max":     100,
	"concurrency_timeout": 0,

	"attempt_store":            "memory",
	"attempt_threshold":        3,
	"attempt_ttl":              time.Hour,
	"attempt_sweep":            10 * time.Minute,
	"attempt_prefix":           "loginguard:attempts",
	"attempt_reset_on_success": false,

	"audit_sink":  "file",
	"audit_file":  "logs/malicious.log",
	"audit_key":   "loginguard:audit",
	"audit_queue": 1024,

	"verifier_url":              "",
	"verifier_timeout":          5 * time.Second,
	"verifier_breaker_failures": 5,
	"verifier_breaker_timeout":  30 * time.Second,

	"redis_addr":     "",
	"redis_password": "",
	"redis_db":       0,

	"stats_redis":      false,
	"stats_prefix":     "loginguard:stats",
	"stats_ttl":        24 * time.Hour,
	"stats_bucket":     "minute",
	"stats_track_keys": false,

	"metrics_enabled":   true,
	"metrics_path":      "/metrics",
	"metrics_namespace": "login_gateway",

	"max_body_bytes": 64 << 10,

	"surface_file": "",
}

// Load lê o ambiente e valida. Erros são fatais na inicialização.
func Load() (Config, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	cfg := Config{
		ListenAddr:  v.GetString("listen_addr"),
		UpstreamURL: v.GetString("upstream_url"),
		LoginPath:   v.GetString("login_path"),
		LogLevel:    v.GetString("log_level"),

		KeyHeader: v.GetString("rate_key_header"),
		TrustXFF:  v.GetBool("trust_xff"),

		RateEnabled: v.GetBool("rate_enabled"),
		RateMax:     v.GetInt("rate_max"),
		RateWindow:  v.GetDuration("rate_window"),
		RetryAfter:  v.GetDuration("retry_after"),
		AddHeaders:  v.GetBool("add_ratelimit_headers"),

		ConcurrencyMax:     v.GetInt("concurrency_max"),
		ConcurrencyTimeout: v.GetDuration("concurrency_timeout"),

		AttemptStore:          strings.ToLower(v.GetString("attempt_store")),
		AttemptThreshold:      v.GetInt("attempt_threshold"),
		AttemptTTL:            v.GetDuration("attempt_ttl"),
		AttemptSweep:          v.GetDuration("attempt_sweep"),
		AttemptPrefix:         v.GetString("attempt_prefix"),
		AttemptResetOnSuccess: v.GetBool("attempt_reset_on_success"),

		AuditSink:  strings.ToLower(v.GetString("audit_sink")),
		AuditFile:  v.GetString("audit_file"),
		AuditKey:   v.GetString("audit_key"),
		AuditQueue: v.GetInt("audit_queue"),

		VerifierURL:             v.GetString("verifier_url"),
		VerifierTimeout:         v.GetDuration("verifier_timeout"),
		VerifierBreakerFailures: v.GetUint32("verifier_breaker_failures"),
		VerifierBreakerTimeout:  v.GetDuration("verifier_breaker_timeout"),

		RedisAddr:     v.GetString("redis_addr"),
		RedisPassword: v.GetString("redis_password"),
		RedisDB:       v.GetInt("redis_db"),

		StatsRedis:     v.GetBool("stats_redis"),
		StatsPrefix:    v.GetString("stats_prefix"),
		StatsTTL:       v.GetDuration("stats_ttl"),
		StatsBucket:    v.GetString("stats_bucket"),
		StatsTrackKeys: v.GetBool("stats_track_keys"),

		MetricsEnabled:   v.GetBool("metrics_enabled"),
		MetricsPath:      v.GetString("metrics_path"),
		MetricsNamespace: v.GetString("metrics_namespace"),

		MaxBodyBytes: v.GetInt64("max_body_bytes"),

		Surface: domain.DefaultSurface(),
	}

	if path := v.GetString("surface_file"); path != "" {
		s, err := LoadSurface(path)
		if err != nil {
			return Config{}, err
		}
		cfg.Surface = s
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type surfaceFile struct {
	RequiredHeaders []string `mapstructure:"required_headers"`
	Routes          []struct {
		Method         string   `mapstructure:"method"`
		Path           string   `mapstructure:"path"`
		RequiredFields []string `mapstructure:"required_fields"`
	} `mapstructure:"routes"`
}

// LoadSurface lê a superfície aceita de um YAML:
//
//	required_headers: [Content-Type, Authorization]
//	routes:
//	  - {method: POST, path: /login, required_fields: [username, password]}
func LoadSurface(path string) (domain.Surface, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return domain.Surface{}, fmt.Errorf("read surface file %s: %w", path, err)
	}

	var f surfaceFile
	if err := v.Unmarshal(&f); err != nil {
		return domain.Surface{}, fmt.Errorf("decode surface file %s: %w", path, err)
	}
	if len(f.Routes) == 0 {
		return domain.Surface{}, fmt.Errorf("surface file %s declares no routes", path)
	}

	s := domain.Surface{RequiredHeaders: f.RequiredHeaders}
	for i, r := range f.Routes {
		if r.Method == "" || !strings.HasPrefix(r.Path, "/") {
			return domain.Surface{}, fmt.Errorf("surface file %s: route %d needs a method and an absolute path", path, i)
		}
		s.Routes = append(s.Routes, domain.Route{
			Method:         strings.ToUpper(r.Method),
			Path:           r.Path,
			RequiredFields: r.RequiredFields,
		})
	}
	return s, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.UpstreamURL == "" {
		errs = append(errs, errors.New("UPSTREAM_URL is required"))
	} else if u, err := url.Parse(c.UpstreamURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("UPSTREAM_URL is invalid: %q", c.UpstreamURL))
	}
	if c.VerifierURL == "" {
		errs = append(errs, errors.New("VERIFIER_URL is required"))
	}
	if c.RateEnabled && (c.RateMax <= 0 || c.RateWindow <= 0) {
		errs = append(errs, errors.New("RATE_MAX and RATE_WINDOW must be > 0"))
	}
	if c.ConcurrencyMax < 0 {
		errs = append(errs, errors.New("CONCURRENCY_MAX must be >= 0"))
	}
	if c.AttemptThreshold <= 0 {
		errs = append(errs, errors.New("ATTEMPT_THRESHOLD must be > 0"))
	}
	if c.AttemptTTL <= 0 {
		errs = append(errs, errors.New("ATTEMPT_TTL must be > 0"))
	}

	switch c.AttemptStore {
	case "memory":
	case "redis":
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required when ATTEMPT_STORE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("ATTEMPT_STORE must be memory or redis, got %q", c.AttemptStore))
	}

	switch c.AuditSink {
	case "file":
		if c.AuditFile == "" {
			errs = append(errs, errors.New("AUDIT_FILE is required when AUDIT_SINK=file"))
		}
	case "redis":
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required when AUDIT_SINK=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("AUDIT_SINK must be file or redis, got %q", c.AuditSink))
	}

	if c.StatsRedis && c.RedisAddr == "" {
		errs = append(errs, errors.New("REDIS_ADDR is required when STATS_REDIS=true"))
	}
	if _, ok := c.Surface.Route("POST", c.LoginPath); !ok {
		errs = append(errs, fmt.Errorf("LOGIN_PATH %q must be a POST route of the surface", c.LoginPath))
	}

	return errors.Join(errs...)
}

// NeedsRedis indica se algum componente usa o Redis.
func (c Config) NeedsRedis() bool {
	return c.AttemptStore == "redis" || c.AuditSink == "redis" || c.StatsRedis
}
