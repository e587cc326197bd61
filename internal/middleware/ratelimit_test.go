package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/taskflow/backend/internal/config"
	"github.com/taskflow/backend/pkg/response"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func limitedRouter(rl *RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/test", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})
	return router
}

func hitFrom(router *gin.Engine, addr string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.RemoteAddr = addr
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{RPS: 10, Burst: 10})
	router := limitedRouter(rl)

	w := hitFrom(router, "192.168.1.1:12345")
	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestRateLimiter_BlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{RPS: 1, Burst: 2})
	router := limitedRouter(rl)

	// Burst+1 rapid requests from one client; the last must be rejected.
	var last *httptest.ResponseRecorder
	for i := 0; i < 5; i++ {
		last = hitFrom(router, "10.0.0.1:12345")
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d after burst exceeded, got %d", http.StatusTooManyRequests, last.Code)
	}

	var body response.Body
	if err := json.Unmarshal(last.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal 429 body: %v", err)
	}
	if body.Success {
		t.Error("rejected request reported success=true")
	}
	if body.Message == "" {
		t.Error("rejected request carried no message")
	}
}

func TestRateLimiter_IndependentPerIP(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{RPS: 1, Burst: 1})
	router := limitedRouter(rl)

	if w := hitFrom(router, "10.0.0.1:12345"); w.Code != http.StatusOK {
		t.Errorf("IP1 first request: expected %d, got %d", http.StatusOK, w.Code)
	}

	// A different client keeps its own untouched bucket
	if w := hitFrom(router, "10.0.0.2:12345"); w.Code != http.StatusOK {
		t.Errorf("IP2 first request: expected %d, got %d", http.StatusOK, w.Code)
	}
}

func TestNewRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{})

	if rl.rps != rate.Limit(5) {
		t.Errorf("default rps = %v, want 5", rl.rps)
	}
	if rl.burst != 10 {
		t.Errorf("default burst = %d, want 10", rl.burst)
	}
}
