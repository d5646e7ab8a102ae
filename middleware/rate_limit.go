package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// window is one client's fixed counting window
type window struct {
	start time.Time
	count int
}

// RateLimiter counts requests per client in fixed windows
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*window
	rate    int
	window  time.Duration
	now     func() time.Time
}

func NewRateLimiter(rate int, w time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*window),
		rate:    rate,
		window:  w,
		now:     time.Now,
	}
}

// Allow records a request for key and reports whether it is within the
// limit, plus how long until the key's window resets
func (l *RateLimiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.clients[key]
	if !ok || now.Sub(w.start) >= l.window {
		if len(l.clients) > 10000 {
			l.sweep(now)
		}
		w = &window{start: now}
		l.clients[key] = w
	}

	if w.count >= l.rate {
		return false, w.start.Add(l.window).Sub(now)
	}
	w.count++
	return true, 0
}

// sweep drops expired windows; must be called with lock held
func (l *RateLimiter) sweep(now time.Time) {
	for k, w := range l.clients {
		if now.Sub(w.start) >= l.window {
			delete(l.clients, k)
		}
	}
}

// RateLimit limits requests per client IP
func RateLimit(rate int, w time.Duration) gin.HandlerFunc {
	limiter := NewRateLimiter(rate, w)

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		ok, retryAfter := limiter.Allow(clientIP)
		if !ok {
			slog.Warn("rate limit exceeded",
				"client_ip", clientIP,
				"request_id", GetRequestID(c),
			)
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
