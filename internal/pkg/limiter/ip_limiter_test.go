package limiter

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestMiddlewareRejectsAfterBurst(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(0.001), 2)
	defer l.Stop()

	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/api/rooms", nil)
		req.RemoteAddr = "198.51.100.7:4000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	other := httptest.NewRequest(http.MethodPost, "/api/rooms", nil)
	other.RemoteAddr = "198.51.100.8:4000"
	assert.True(t, l.Allow(other))
}

func TestSweepDropsIdleLimiters(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 1)
	defer l.Stop()

	l.GetLimiter("a").Allow()
	l.GetLimiter("b")

	removed, remaining := l.sweep(time.Now())
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, remaining)

	removed, remaining = l.sweep(time.Now().Add(2 * time.Second))
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, remaining)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.5:1234"
	assert.Equal(t, "203.0.113.5", ClientIP(req))

	req.RemoteAddr = "203.0.113.5"
	assert.Equal(t, "203.0.113.5", ClientIP(req))

	req.RemoteAddr = ""
	assert.Equal(t, "unknown_ip", ClientIP(req))
}
