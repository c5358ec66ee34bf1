package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asowa/marketplace/internal/auth"
	"github.com/asowa/marketplace/internal/entities"
)

func withLoginLimiter(t *testing.T, maxAttempts int, proxies []string) func(*RouterConfig) {
	limiter := auth.NewRateLimiter(auth.RateLimitConfig{
		MaxAttempts:     maxAttempts,
		WindowDuration:  time.Minute,
		LockoutDuration: time.Minute,
	})
	t.Cleanup(limiter.Stop)
	return func(cfg *RouterConfig) {
		cfg.LoginLimiter = limiter
		cfg.TrustedProxies = proxies
	}
}

// loginVia sends a login from httptest's default peer (192.0.2.1) claiming forwardedFor.
func (s *testServer) loginVia(forwardedFor, email, password string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", forwardedFor)
	return s.do(req)
}

func TestRouter_LoginThrottleAndForwardedFor(t *testing.T) {
	tests := []struct {
		name       string
		proxies    []string
		wantLocked bool
	}{
		{"no trusted proxies", nil, true},
		{"peer outside trusted range", []string{"10.0.0.0/8"}, true},
		{"trusted peer", []string{"192.0.2.1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, withLoginLimiter(t, 3, tt.proxies))
			s.tokenFor(t, "ada@example.com", entities.RoleUser)

			wantAfterLimit := http.StatusUnauthorized
			if tt.wantLocked {
				wantAfterLimit = http.StatusTooManyRequests
			}

			for i := 1; i <= 10; i++ {
				w := s.loginVia(fmt.Sprintf("203.0.113.%d", i), "ada@example.com", "wrong")
				if i <= 3 {
					require.Equal(t, http.StatusUnauthorized, w.Code, "attempt %d", i)
					continue
				}
				assert.Equal(t, wantAfterLimit, w.Code, "attempt %d", i)
			}

			w := s.loginVia("203.0.113.99", "ada@example.com", "secret123")
			if tt.wantLocked {
				assert.Equal(t, http.StatusTooManyRequests, w.Code)
			} else {
				assert.Equal(t, http.StatusOK, w.Code)
			}
		})
	}
}

func TestRouter_InvalidTrustedProxiesFallBackToPeer(t *testing.T) {
	s := newTestServer(t, withLoginLimiter(t, 1, []string{"not-an-ip"}))

	w := s.loginVia("203.0.113.1", "nobody@example.com", "wrong")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.loginVia("203.0.113.2", "nobody@example.com", "wrong")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
