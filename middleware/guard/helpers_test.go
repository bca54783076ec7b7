package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"login-gateway/middleware/guard/application"
	"login-gateway/middleware/guard/domain"
	"login-gateway/middleware/guard/infra"

	json "github.com/goccy/go-json"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

type countingVerifier struct {
	calls atomic.Int32
	user  string
	pass  string
	err   error
}

func (v *countingVerifier) Verify(_ context.Context, u, p string) (bool, error) {
	v.calls.Add(1)
	if v.err != nil {
		return false, v.err
	}
	return u == v.user && p == v.pass, nil
}

type auditLog struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (a *auditLog) Record(e domain.AuditEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}

func (a *auditLog) all() []domain.AuditEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.AuditEntry(nil), a.entries...)
}

type harness struct {
	handler  http.Handler
	verifier *countingVerifier
	audit    *auditLog
	stats    *infra.MemoryStatsStore
	upstream *atomic.Int32
}

// newHarness monta a cadeia do gateway: triagem -> /login ou upstream.
func newHarness(t *testing.T) *harness {
	t.Helper()
	logger, _ := logtest.NewNullLogger()

	h := &harness{
		verifier: &countingVerifier{user: "alice", pass: "s3cret"},
		audit:    &auditLog{},
		stats:    infra.NewMemoryStatsStore(infra.WithTrackKeys(true)),
		upstream: &atomic.Int32{},
	}
	gw := &application.Gateway{
		Shape:      application.NewShapeValidator(domain.DefaultSurface()),
		Classifier: application.NewClassifier(h.audit),
		Attempts:   application.AttemptService{Store: infra.NewMemoryAttemptStore()},
		Verifier:   h.verifier,
		Log:        logger,
	}
	opts := Options{Gateway: gw, Stats: h.stats, Log: logger}

	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.upstream.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	mux := http.NewServeMux()
	mux.Handle(application.DefaultLoginPath, LoginHandler(opts))
	mux.Handle("/", ProceedHandler(opts, upstream))

	h.handler = Middleware(opts)(mux)
	return h
}

func loginRequest(remote, body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "http://gateway/login", strings.NewReader(body))
	r.RemoteAddr = remote
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Authorization", "Bearer demo")
	return r
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func messageOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body messageBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %q (%v)", w.Body.String(), err)
	}
	return body.Message
}
