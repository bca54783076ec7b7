package guard

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDefaultKeyFunc(t *testing.T) {
	cases := []struct {
		name     string
		header   string
		trustXFF bool
		set      map[string]string
		remote   string
		want     string
	}{
		{"header wins", "X-Client", false, map[string]string{"X-Client": " client-123 "}, "10.0.0.1:1234", "client-123"},
		{"blank header falls back", "X-Client", false, map[string]string{"X-Client": "  "}, "10.0.0.1:1234", "10.0.0.1"},
		{"first xff hop", "", true, map[string]string{"X-Forwarded-For": "1.2.3.4, 5.6.7.8"}, "10.0.0.9:5555", "1.2.3.4"},
		{"xff ignored when untrusted", "", false, map[string]string{"X-Forwarded-For": "1.2.3.4"}, "10.0.0.9:5555", "10.0.0.9"},
		{"garbage xff ignored", "", true, map[string]string{"X-Forwarded-For": "not-an-ip"}, "10.0.0.9:5555", "10.0.0.9"},
		{"remote without port", "", false, nil, "10.0.0.9", "10.0.0.9"},
		{"ipv6 remote", "", false, nil, "[::1]:8080", "::1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
			r.RemoteAddr = tc.remote
			for k, v := range tc.set {
				r.Header.Set(k, v)
			}
			if got := DefaultKeyFunc(tc.header, tc.trustXFF)(r); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
