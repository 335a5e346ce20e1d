package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"gymtrack/internal/logger"
	"gymtrack/internal/metrics"
)

// ipLimiter hands out one token bucket per client IP. Entries idle
// past the ttl are dropped so the map does not grow with every
// address ever seen.
type ipLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	ttl     time.Duration
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(rps float64, burst int, ttl time.Duration) *ipLimiter {
	l := &ipLimiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(rps),
		burst:   burst,
		ttl:     ttl,
	}

	go l.evictLoop()

	return l
}

func (l *ipLimiter) evictLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		for ip, b := range l.buckets {
			if time.Since(b.lastSeen) > l.ttl {
				delete(l.buckets, ip)
			}
		}
		l.mu.Unlock()
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	b, ok := l.buckets[ip]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[ip] = b
	}
	b.lastSeen = time.Now()
	l.mu.Unlock()

	return b.limiter.Allow()
}

// RateLimitMiddleware guards the auth endpoints against credential
// stuffing. Rejections are logged and counted but never audited, so a
// flood cannot amplify into audit traffic.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	limiter := newIPLimiter(rps, burst, 3*time.Minute)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !limiter.allow(ip) {
			metrics.RecordRateLimited(c.FullPath())
			logger.Infof("Rate limited %s on %s", ip, c.FullPath())
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests, slow down",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
