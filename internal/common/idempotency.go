package common

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Idem rejects replays of write requests carrying the same Idempotency-Key
// header within the TTL. Keys are claimed with SETNX so concurrent retries
// race to a single winner.
type Idem struct {
	R   *redis.Client
	TTL time.Duration
}

// Middleware enforces idempotency for write endpoints. Requests without the
// header, or with no Redis wired, pass straight through.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Idempotency-Key")
		if header == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		key := idemKey(header)
		claimed, err := i.R.SetNX(r.Context(), key, "locked", i.TTL).Result()
		if err != nil {
			JSONError(w, http.StatusInternalServerError, "INTERNAL", "idempotency store error", map[string]any{"error": err.Error()})
			return
		}
		if !claimed {
			JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "duplicate request", nil)
			return
		}
		defer func() {
			// Keep the claim expiring even if the handler panics.
			_ = i.R.Expire(context.Background(), key, i.TTL).Err()
		}()
		next.ServeHTTP(w, r)
	})
}

func idemKey(header string) string {
	sum := sha256.Sum256([]byte(header))
	return "idem:" + hex.EncodeToString(sum[:])
}
