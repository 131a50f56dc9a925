package http

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{
			name:       "direct connection",
			remoteAddr: "203.0.113.7:51234",
			want:       "203.0.113.7",
		},
		{
			name:       "trusted proxy honors forwarded-for",
			remoteAddr: "127.0.0.1:8080",
			xff:        "203.0.113.7, 10.0.0.1",
			want:       "203.0.113.7",
		},
		{
			name:       "trusted proxy honors real-ip",
			remoteAddr: "10.0.0.5:443",
			xri:        "203.0.113.9",
			want:       "203.0.113.9",
		},
		{
			name:       "untrusted peer cannot spoof via headers",
			remoteAddr: "203.0.113.7:51234",
			xff:        "1.2.3.4",
			want:       "203.0.113.7",
		},
		{
			name:       "garbage forwarded-for falls back to peer",
			remoteAddr: "127.0.0.1:8080",
			xff:        "not-an-ip",
			want:       "127.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/budget", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := extractClientIP(r); got != tt.want {
				t.Errorf("extractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		userAgent  string
		method     string
		suspicious bool
	}{
		{name: "normal api call", target: "/transactions?month=2026-03", method: "GET"},
		{name: "webhook post", target: "/webhook", method: "POST"},
		{name: "path traversal", target: "/../../etc/passwd", method: "GET", suspicious: true},
		{name: "env probe", target: "/.env", method: "GET", suspicious: true},
		{name: "sql injection in query", target: "/transactions?month=1+union+select+1", method: "GET", suspicious: true},
		{name: "scanner agent", target: "/budget", userAgent: "sqlmap/1.7", method: "GET", suspicious: true},
		{name: "plain curl is fine", target: "/budget", userAgent: "curl/8.4.0", method: "GET"},
		{name: "trace method", target: "/budget", method: "TRACE", suspicious: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.userAgent != "" {
				r.Header.Set("User-Agent", tt.userAgent)
			}

			metrics := &securityMetrics{}
			if got := detectSuspiciousRequest(r, metrics); got != tt.suspicious {
				t.Errorf("detectSuspiciousRequest() = %v, want %v", got, tt.suspicious)
			}
			if tt.suspicious && metrics.suspiciousRequests != 1 {
				t.Errorf("suspiciousRequests = %d, want 1", metrics.suspiciousRequests)
			}
		})
	}
}

func TestRateLimiterEnforcesLimit(t *testing.T) {
	rl := newRateLimiter(3, time.Minute)
	defer rl.stop()

	metrics := &securityMetrics{}
	for i := 0; i < 3; i++ {
		if !rl.allow("203.0.113.7", metrics) {
			t.Fatalf("request %d unexpectedly limited", i+1)
		}
	}
	if rl.allow("203.0.113.7", metrics) {
		t.Error("request over the limit was allowed")
	}
	if metrics.rateLimitHits != 1 {
		t.Errorf("rateLimitHits = %d, want 1", metrics.rateLimitHits)
	}

	// Other clients have their own window.
	if !rl.allow("203.0.113.8", metrics) {
		t.Error("unrelated client was limited")
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)
	defer rl.stop()

	if !rl.allow("203.0.113.7", nil) {
		t.Fatal("first request limited")
	}
	if rl.allow("203.0.113.7", nil) {
		t.Fatal("second request in window allowed")
	}

	// Age the window out; the next request starts a fresh one.
	rl.mu.Lock()
	rl.clients["203.0.113.7"].windowStart = time.Now().Add(-2 * time.Minute)
	rl.mu.Unlock()

	if !rl.allow("203.0.113.7", nil) {
		t.Error("request after window expiry was limited")
	}
}

func TestRateLimiterDropsIdleClients(t *testing.T) {
	rl := newRateLimiter(60, time.Minute)
	defer rl.stop()

	rl.allow("203.0.113.7", nil)
	rl.mu.Lock()
	rl.clients["203.0.113.7"].windowStart = time.Now().Add(-time.Hour)
	rl.mu.Unlock()

	rl.dropIdleClients()

	rl.mu.Lock()
	_, exists := rl.clients["203.0.113.7"]
	rl.mu.Unlock()
	if exists {
		t.Error("idle client entry was not dropped")
	}
}
