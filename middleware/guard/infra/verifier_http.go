package infra

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker"
)

// ErrVerifierUnavailable indica que o serviço de credenciais não respondeu
// de forma conclusiva (erro de rede, 5xx, circuito aberto).
var ErrVerifierUnavailable = errors.New("credential verifier unavailable")

// HTTPVerifier é o cliente do colaborador externo de credenciais.
//
// Contrato: POST <url> com {"username","password"}.
//   - 2xx         -> credenciais válidas
//   - 400/401/403 -> credenciais inválidas
//   - demais      -> erro (não conta como falha do cliente)
//
// As chamadas passam por um circuit breaker: com o serviço fora do ar o
// gateway responde rápido em vez de empilhar requisições.
type HTTPVerifier struct {
	url    string
	client *http.Client
	cb     *gobreaker.CircuitBreaker
}

type HTTPVerifierOption func(*HTTPVerifier)

func WithVerifierClient(c *http.Client) HTTPVerifierOption {
	return func(v *HTTPVerifier) { v.client = c }
}

func WithVerifierBreaker(st gobreaker.Settings) HTTPVerifierOption {
	return func(v *HTTPVerifier) { v.cb = gobreaker.NewCircuitBreaker(st) }
}

func NewHTTPVerifier(url string, opts ...HTTPVerifierOption) *HTTPVerifier {
	v := &HTTPVerifier{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.cb == nil {
		v.cb = gobreaker.NewCircuitBreaker(DefaultBreakerSettings("credential-verifier"))
	}
	return v
}

// DefaultBreakerSettings abre o circuito após 5 falhas seguidas e tenta de
// novo depois de 30s.
func DefaultBreakerSettings(name string) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 5 },
	}
}

type verifyRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (v *HTTPVerifier) Verify(ctx context.Context, username, password string) (bool, error) {
	res, err := v.cb.Execute(func() (interface{}, error) {
		return v.call(ctx, username, password)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return false, fmt.Errorf("%w: %w", ErrVerifierUnavailable, err)
		}
		return false, err
	}
	return res.(bool), nil
}

// call devolve erro só para falhas do serviço; credencial inválida é
// (false, nil) e não conta para o breaker.
func (v *HTTPVerifier) call(ctx context.Context, username, password string) (bool, error) {
	body, err := json.Marshal(verifyRequest{Username: username, Password: password})
	if err != nil {
		return false, fmt.Errorf("encode verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrVerifierUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		return false, nil
	default:
		return false, fmt.Errorf("%w: status %d", ErrVerifierUnavailable, resp.StatusCode)
	}
}
