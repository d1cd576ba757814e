package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimitPerIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimitPerIP(1, 2, 16, time.Minute))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	// burst of 2 allowed, third rejected
	if code := do("10.0.0.1:1234"); code != http.StatusOK {
		t.Fatalf("first request: want 200 got %d", code)
	}
	if code := do("10.0.0.1:1234"); code != http.StatusOK {
		t.Fatalf("second request: want 200 got %d", code)
	}
	if code := do("10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Fatalf("third request: want 429 got %d", code)
	}

	// a different IP has its own bucket
	if code := do("10.0.0.2:1234"); code != http.StatusOK {
		t.Fatalf("other ip: want 200 got %d", code)
	}
}
