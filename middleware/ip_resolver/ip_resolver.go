package ipresolver

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type contextKey string

// CallerIPKey carries the resolved caller IP through the request context.
const CallerIPKey contextKey = "x-caller-ip"

// Middleware resolves the caller IP (X-Forwarded-For first — the user IP is
// always the first entry — then the socket address) and stores it in the
// request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := resolveIP(r)
		ctx := context.WithValue(r.Context(), CallerIPKey, ip)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the caller IP resolved by Middleware, or "".
func FromContext(ctx context.Context) string {
	ip, _ := ctx.Value(CallerIPKey).(string)
	return ip
}

func resolveIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
