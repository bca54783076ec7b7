package guard

import (
	"net/http"

	"login-gateway/middleware/guard/domain"

	json "github.com/goccy/go-json"
)

type messageBody struct {
	Message string `json:"message"`
}

// writeOutcome traduz um Outcome terminal em status + {"message": ...}.
func writeOutcome(w http.ResponseWriter, o domain.Outcome) {
	writeMessage(w, o.Status(), o.Message())
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(messageBody{Message: msg})
}
