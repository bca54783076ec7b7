package guard

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"login-gateway/middleware/guard/domain"
	"login-gateway/middleware/guard/infra"
)

func TestRateMiddleware_AllowsBurstThenRejects(t *testing.T) {
	store := infra.NewRateStore(5, 15*time.Minute)
	stats := infra.NewMemoryStatsStore()

	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})

	h := RateMiddleware(RateOptions{
		Store:               store,
		Stats:               stats,
		RetryAfter:          3 * time.Minute,
		AddRateLimitHeaders: true,
		Paths:               []string{"/login"},
	})(next)

	for i := 1; i <= 5; i++ {
		r := httptest.NewRequest(http.MethodPost, "http://example/login", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		w := serve(h, r)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
		if w.Header().Get("X-RateLimit-Burst") != "5" {
			t.Fatalf("expected X-RateLimit-Burst=5, got %q", w.Header().Get("X-RateLimit-Burst"))
		}
	}

	r := httptest.NewRequest(http.MethodPost, "http://example/login", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	w := serve(h, r)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if got := messageOf(t, w); got != "Too many requests, please try again later." {
		t.Fatalf("unexpected message %q", got)
	}
	if got := strings.TrimSpace(w.Header().Get("Retry-After")); got != "180" {
		t.Fatalf("expected Retry-After=180, got %q", got)
	}
	if calls != 5 {
		t.Fatalf("expected next handler to be called 5 times, got %d", calls)
	}
	if stats.Count(domain.KindRateLimited) != 1 {
		t.Fatalf("expected rate_limited to be counted once")
	}
}

func TestRateMiddleware_OnlyConfiguredPaths(t *testing.T) {
	store := infra.NewRateStore(1, time.Hour)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := RateMiddleware(RateOptions{Store: store, Paths: []string{"/login"}})(next)

	for i := 0; i < 3; i++ {
		r := httptest.NewRequest(http.MethodGet, "http://example/profile", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		if w := serve(h, r); w.Code != http.StatusOK {
			t.Fatalf("expected unlimited path to pass, got %d", w.Code)
		}
	}
}

func TestRateMiddleware_KeyByHeader(t *testing.T) {
	store := infra.NewRateStore(1, time.Hour)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := RateMiddleware(RateOptions{Store: store, KeyHeader: "X-Api-Key"})(next)

	// cada chave tem seu próprio bucket
	for _, k := range []string{"k1", "k2"} {
		r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
		r.Header.Set("X-Api-Key", k)
		r.RemoteAddr = "10.0.0.1:1234"
		if w := serve(h, r); w.Code != http.StatusOK {
			t.Fatalf("expected 200 for key %s, got %d", k, w.Code)
		}
	}
}

func TestRateMiddleware_RetryAfterNeverZero(t *testing.T) {
	store := infra.NewRateStore(1, time.Hour)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := RateMiddleware(RateOptions{Store: store, RetryAfter: 300 * time.Millisecond})(next)

	for i := 0; i < 2; i++ {
		r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		w := serve(h, r)
		if i == 1 && w.Header().Get("Retry-After") != "1" {
			t.Fatalf("expected Retry-After=1, got %q", w.Header().Get("Retry-After"))
		}
	}
}
