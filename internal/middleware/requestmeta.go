package middleware

import (
	"net"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/vidproxy/internal/handlers"
)

// RequestMeta is a middleware that adds client IP, user-agent, referrer and the
// externally visible base URL to the request context.
//
// When baseURL is non-empty it is used as is; otherwise the base URL is derived from
// the request scheme and Host header.
func RequestMeta(_ huma.API, baseURL string) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		meta := handlers.RequestMeta{
			ClientIP:  extractClientIP(ctx),
			UserAgent: ctx.Header("User-Agent"),
			Referrer:  ctx.Header("Referer"),
			BaseURL:   baseURL,
		}

		if meta.BaseURL == "" {
			meta.BaseURL = requestBaseURL(ctx)
		}

		newCtx := handlers.ContextWithRequestMeta(ctx.Context(), meta)
		ctx = huma.WithContext(ctx, newCtx)

		next(ctx)
	}
}

func extractClientIP(ctx huma.Context) string {
	// Check X-Forwarded-For first (may contain multiple IPs)
	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		// Take the first IP (original client)
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}

		return strings.TrimSpace(xff)
	}

	if xri := ctx.Header("X-Real-IP"); xri != "" {
		return xri
	}

	addr := ctx.RemoteAddr()

	ip, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}

	return ip
}

// requestBaseURL returns "scheme://host" for the inbound request, or "" when the
// request carries no Host.
func requestBaseURL(ctx huma.Context) string {
	host := ctx.Host()
	if host == "" {
		return ""
	}

	scheme := "http"
	if ctx.TLS() != nil {
		scheme = "https"
	}

	// A TLS-terminating proxy in front of us reports the original scheme.
	if proto := ctx.Header("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}

	return scheme + "://" + host
}
