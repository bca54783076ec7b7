package guard

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader é propagado ao upstream e devolvido ao cliente.
const RequestIDHeader = "X-Request-ID"

type requestIDCtxKey struct{}

// RequestID garante um X-Request-ID por requisição. Um valor recebido do
// cliente é mantido quando é um UUID válido.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		r.Header.Set(RequestIDHeader, id)
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDCtxKey{}, id)))
	})
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDCtxKey{}).(string)
	return id
}
