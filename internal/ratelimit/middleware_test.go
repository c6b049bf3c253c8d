package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddlewareEnforcesLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limited := Handler{
		Limiter: Limiter{Client: client, Prefix: "ratelimit:"},
		Config: Config{
			Key:    func(*http.Request) string { return "static" },
			Window: time.Second,
			Max:    1,
		},
	}.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/cart/items", nil)

	first := httptest.NewRecorder()
	limited.ServeHTTP(first, req.Clone(req.Context()))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	limited.ServeHTTP(second, req.Clone(req.Context()))
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	require.Equal(t, "1", second.Header().Get("X-RateLimit-Limit"))
	require.NotEmpty(t, second.Header().Get("Retry-After"))
}

func TestMiddlewareFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })

	var observed error
	limited := Handler{
		Limiter: Limiter{Client: client, Prefix: "ratelimit:"},
		Config: Config{
			Key:    func(*http.Request) string { return "err" },
			Window: time.Second,
			Max:    1,
		},
		OnError: func(err error) { observed = err },
	}.Middleware(okHandler())

	rr := httptest.NewRecorder()
	limited.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/cart/items", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Error(t, observed)
}
