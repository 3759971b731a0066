package httpx

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP extracts the originating client IP from the request. It trusts
// X-Forwarded-For (first entry) and X-Real-IP before falling back to
// RemoteAddr, which is what this service sees behind the usual reverse proxy.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// The first entry is the original client; later entries are proxies.
		if idx := strings.IndexByte(xff, ','); idx >= 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
