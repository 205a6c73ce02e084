package api

import (
	"net/http/httptest"
	"testing"
	"time"
)

// TestIPRateLimiterPerIP tests that each IP has its own bucket
func TestIPRateLimiterPerIP(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 3, CleanupInterval: time.Hour})
	defer rl.Stop()

	allowed := 0
	for i := 0; i < 5; i++ {
		if rl.Allow("10.0.0.1") {
			allowed++
		}
	}
	if allowed != 3 {
		t.Errorf("Expected 3 allowed, got %d", allowed)
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("Expected a fresh IP to be allowed")
	}

	stats := rl.GetStats()
	if stats["allowed"] != 4 || stats["rejected"] != 2 {
		t.Errorf("Expected 4 allowed and 2 rejected, got %v", stats)
	}
}

// TestIPRateLimiterCleanup tests that idle limiters are evicted
func TestIPRateLimiterCleanup(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1, CleanupInterval: time.Hour})
	defer rl.Stop()

	rl.Allow("10.0.0.1")
	if rl.Allow("10.0.0.1") {
		t.Fatal("Expected second request to be limited")
	}

	rl.cleanup(time.Now().Add(time.Minute))

	if !rl.Allow("10.0.0.1") {
		t.Error("Expected a fresh bucket after cleanup")
	}
}

// TestGetClientIP tests header precedence
func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		remote   string
		expected string
	}{
		{"remote addr", nil, "192.0.2.7:5555", "192.0.2.7"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "10.0.0.1:80", "203.0.113.5"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.2 "}, "10.0.0.1:80", "198.51.100.2"},
		{"no port", nil, "192.0.2.9", "192.0.2.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := GetClientIP(req); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

// TestWebSocketRateLimiter tests per-IP connection slots
func TestWebSocketRateLimiter(t *testing.T) {
	wrl := NewWebSocketRateLimiter(2)

	if !wrl.Allow("a") || !wrl.Allow("a") {
		t.Fatal("Expected two slots")
	}
	if wrl.Allow("a") {
		t.Error("Expected third slot to be rejected")
	}

	wrl.Release("a")
	if got := wrl.GetConnectionCount("a"); got != 1 {
		t.Errorf("Expected 1 connection, got %d", got)
	}
	if !wrl.Allow("a") {
		t.Error("Expected slot after release")
	}
}

// TestIsAllowedOrigin tests origin pattern matching
func TestIsAllowedOrigin(t *testing.T) {
	patterns := []string{"http://localhost:*", "https://*.example.com", "https://app.test"}

	tests := []struct {
		origin   string
		expected bool
	}{
		{"http://localhost", true},
		{"http://localhost:3000", true},
		{"http://localhost.evil.com", false},
		{"https://play.example.com", true},
		{"http://play.example.com", false},
		{"https://app.test", true},
		{"https://app.test.evil", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsAllowedOrigin(tt.origin, patterns); got != tt.expected {
			t.Errorf("%q: expected %v, got %v", tt.origin, tt.expected, got)
		}
	}

	if !IsAllowedOrigin("http://127.0.0.1:9000", nil) {
		t.Error("Expected default origins to allow loopback")
	}
}
