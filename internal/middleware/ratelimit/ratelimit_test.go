package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterAllowsBurstThenRejects(t *testing.T) {
	l := NewLimiter(Config{RequestsPerMinute: 3})
	defer l.Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("1.2.3.4"), "request %d", i)
	}
	assert.False(t, l.Allow("1.2.3.4"))
	assert.Equal(t, int64(1), l.Rejected())

	// Other clients have their own bucket.
	assert.True(t, l.Allow("5.6.7.8"))
	assert.Equal(t, 2, l.Size())
}

func TestLimiterDefaults(t *testing.T) {
	l := NewLimiter(Config{})
	defer l.Stop()

	assert.Equal(t, 60, l.burst)
}

func TestCleanupRemovesIdleClients(t *testing.T) {
	l := NewLimiter(Config{RequestsPerMinute: 10, CleanupInterval: time.Hour})
	defer l.Stop()

	l.Allow("idle")
	l.mu.Lock()
	l.clients["idle"].lastSeen = time.Now().Add(-2 * time.Hour)
	l.mu.Unlock()
	l.Allow("active")

	l.cleanupStaleEntries()
	assert.Equal(t, 1, l.Size())
}

func TestStopIsIdempotent(t *testing.T) {
	l := NewLimiter(DefaultConfig())
	l.Stop()
	l.Stop()
}

func TestMiddlewareOnlyLimitsPost(t *testing.T) {
	l := NewLimiter(Config{RequestsPerMinute: 1})
	defer l.Stop()

	h := l.Middleware(func(*http.Request) string { return "client" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(method string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(method, "/login", nil))
		return rr
	}

	assert.Equal(t, http.StatusNoContent, do(http.MethodPost).Code)
	rr := do(http.MethodPost)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusNoContent, do(http.MethodGet).Code)
}
