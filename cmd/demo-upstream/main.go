package main

import (
	"net/http"
	"os"

	"login-gateway/internal/logger"

	json "github.com/goccy/go-json"
)

// Upstream mínimo para validar o gateway na mão: recebe o que passou pela
// triagem (/signup, /profile) e loga o X-Request-ID propagado.
func main() {
	log := logger.New(os.Getenv("LOG_LEVEL"))

	reply := func(w http.ResponseWriter, status int, msg string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /signup", func(w http.ResponseWriter, r *http.Request) {
		log.WithField("request_id", r.Header.Get("X-Request-ID")).Info("signup reached upstream")
		reply(w, http.StatusCreated, "User registered successfully")
	})
	mux.HandleFunc("GET /profile", func(w http.ResponseWriter, r *http.Request) {
		log.WithField("request_id", r.Header.Get("X-Request-ID")).Info("profile reached upstream")
		reply(w, http.StatusOK, "Profile")
	})

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":9000"
	}
	log.WithField("listen", addr).Info("demo upstream listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.WithError(err).Error("server error")
		os.Exit(1)
	}
}
