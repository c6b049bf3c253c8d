package ratelimit

import (
	"net/http"
	"strconv"
	"time"
)

// Config derives the limit key and the thresholds applied to it.
type Config struct {
	Key    func(*http.Request) string
	Window time.Duration
	Max    int
}

// Handler rejects requests over the limit with 429. Limiter failures fail
// open: the request proceeds and OnError observes the cause.
type Handler struct {
	Limiter Limiter
	Config  Config
	OnError func(error)
}

// Middleware wraps next with the rate limit check.
func (h Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Config.Key == nil {
			next.ServeHTTP(w, r)
			return
		}
		allowed, remaining, resetAt, err := h.Limiter.Allow(r.Context(), h.Config.Key(r), h.Config.Window, h.Config.Max)
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		writeLimitHeaders(w, h.Config.Max, remaining, resetAt)
		if !allowed {
			retryAfter := int(time.Until(resetAt).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeLimitHeaders(w http.ResponseWriter, max, remaining int, resetAt time.Time) {
	if max < 0 {
		max = 0
	}
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(max))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
}
