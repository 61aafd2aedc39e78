package http

import (
	"math"
	"net/http"
	"strconv"

	"github.com/Sentinel-Gate/irisgate/internal/domain/auth"
	"github.com/Sentinel-Gate/irisgate/internal/domain/ratelimit"
)

// RateLimit throttles callers by API key label, or by client IP when the
// request is unauthenticated. Rejected requests get 429 with Retry-After.
// Limiter errors let the request through.
func RateLimit(limiter ratelimit.Limiter, limit ratelimit.Limit, metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := callerKey(r)
			res, err := limiter.Allow(r.Context(), key, limit)
			if err != nil {
				LoggerFromContext(r.Context()).Warn("rate limiter failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !res.Allowed {
				if metrics != nil {
					metrics.RateLimitedTotal.Inc()
				}
				LoggerFromContext(r.Context()).Warn("rate limited", "key", key, "retry_after", res.RetryAfter)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			next.ServeHTTP(w, r)
		})
	}
}

func callerKey(r *http.Request) string {
	if id, ok := r.Context().Value(IdentityKey).(auth.Identity); ok && id.Label != "" {
		return ratelimit.Key(ratelimit.KeyAPIKey, id.Label)
	}
	ip, _ := r.Context().Value(ClientIPKey).(string)
	if ip == "" {
		ip = extractRealIP(r)
	}
	return ratelimit.Key(ratelimit.KeyIP, ip)
}
