package api

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/templatedir/templatedir-server/internal/http/response"
	"github.com/templatedir/templatedir-server/internal/ratelimit"
)

const rateLimitMessage = "Too many requests. Please try again later."

// RateLimitMiddleware creates a middleware that rate limits requests by IP.
// Returns 429 Too Many Requests when limit is exceeded. A nil limiter
// disables limiting.
func RateLimitMiddleware(limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r.Header.Get, r.RemoteAddr)

			if !limiter.Allow(key) {
				logger.Warn("Rate limit exceeded",
					"ip", key,
					"path", r.URL.Path,
				)
				response.TooManyRequests(w, rateLimitMessage, logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimited is the huma counterpart of RateLimitMiddleware, attached per
// operation so limited and unlimited routes share one router.
func (s *Server) rateLimited(limiter *ratelimit.KeyedRateLimiter) huma.Middlewares {
	if limiter == nil {
		return nil
	}
	return huma.Middlewares{func(ctx huma.Context, next func(huma.Context)) {
		key := clientIP(ctx.Header, ctx.RemoteAddr())

		if !limiter.Allow(key) {
			s.logger.Warn("Rate limit exceeded",
				"ip", key,
				"operation", ctx.Operation().OperationID,
			)
			ctx.SetHeader("Retry-After", "60")
			_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, rateLimitMessage)
			return
		}

		next(ctx)
	}}
}

// clientIP extracts the client IP from the request.
// Checks X-Forwarded-For and X-Real-IP headers before falling back to RemoteAddr.
func clientIP(header func(string) string, remoteAddr string) string {
	// X-Forwarded-For may contain multiple IPs, first is client.
	if xff := header("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := header("X-Real-IP"); xri != "" {
		return xri
	}

	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
