package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/config"
)

func TestClientIP(t *testing.T) {
	cfg := &config.Config{TrustedProxies: []string{"10.0.0.0/8"}}

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "198.51.100.7:4000"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	assert.Equal(t, "198.51.100.7", ClientIP(req, cfg).String(), "untrusted peer")

	req.RemoteAddr = "10.1.2.3:4000"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 198.51.100.1, 10.0.0.5")
	assert.Equal(t, "198.51.100.1", ClientIP(req, cfg).String(), "right-most untrusted hop")

	req.Header.Del("X-Forwarded-For")
	assert.Equal(t, "10.1.2.3", ClientIP(req, cfg).String())

	assert.Equal(t, "10.1.2.3", ClientIP(req, nil).String())
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(&config.Config{RateLimitRPS: 1, RateLimitBurst: 2})
	l.now = func() time.Time { return now }

	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/api/v1/", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, do("192.0.2.1:1").Code)
	assert.Equal(t, http.StatusOK, do("192.0.2.1:2").Code)
	w := do("192.0.2.1:3")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do("192.0.2.2:1").Code, "buckets are per client")

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, do("192.0.2.1:4").Code, "bucket refills")

	now = now.Add(10 * time.Minute)
	l.Cleanup()
	l.mu.Lock()
	assert.Empty(t, l.visitors)
	l.mu.Unlock()
}

func TestRateLimiter_Disabled(t *testing.T) {
	l := NewRateLimiter(&config.Config{})
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiter_SetLimits(t *testing.T) {
	l := NewRateLimiter(&config.Config{RateLimitRPS: 1, RateLimitBurst: 1})
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	do := func() int {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "192.0.2.9:1"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusTooManyRequests, do())

	l.SetLimits(0, 0)
	assert.Equal(t, http.StatusOK, do(), "zero rate disables limiting")
	assert.Equal(t, http.StatusOK, do())
}
