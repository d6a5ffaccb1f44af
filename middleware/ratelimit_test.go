package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newLimitedRouter(limit int, window time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewRateLimiter(limit, window).Limit())
	r.GET("/test", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "ok"})
	})
	return r
}

func get(r *gin.Engine, ip string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.RemoteAddr = ip + ":12345"
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiterAllowsWithinLimit(t *testing.T) {
	r := newLimitedRouter(5, time.Minute)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, get(r, "127.0.0.1").Code, "request %d", i+1)
	}
}

func TestRateLimiterBlocksOverLimit(t *testing.T) {
	r := newLimitedRouter(3, time.Minute)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, get(r, "127.0.0.1").Code)
	}

	w := get(r, "127.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Rate limit exceeded")
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimiterIsPerClient(t *testing.T) {
	r := newLimitedRouter(2, time.Minute)
	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, get(r, "192.168.1.1").Code)
		assert.Equal(t, http.StatusOK, get(r, "192.168.1.2").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, get(r, "192.168.1.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "192.168.1.2").Code)
}

func TestRateLimiterWindowSlides(t *testing.T) {
	r := newLimitedRouter(2, 100*time.Millisecond)
	assert.Equal(t, http.StatusOK, get(r, "127.0.0.1").Code)
	assert.Equal(t, http.StatusOK, get(r, "127.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "127.0.0.1").Code)

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, http.StatusOK, get(r, "127.0.0.1").Code)
}

func TestTrimWindow(t *testing.T) {
	now := time.Now()
	stamps := []time.Time{now.Add(-3 * time.Minute), now.Add(-30 * time.Second), now}

	kept := trimWindow(stamps, now.Add(-time.Minute))
	assert.Len(t, kept, 2)

	assert.Nil(t, trimWindow(stamps, now.Add(time.Second)))
}
