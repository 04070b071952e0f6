package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Limiter is a fixed-window request counter keyed by client, so one noisy
// client only exhausts its own budget. Requests over the budget are
// rejected immediately rather than queued; admission control, not queueing.
type Limiter struct {
	mu        sync.Mutex
	max       int
	window    time.Duration
	clients   map[string]*clientWindow
	lastPrune time.Time

	now func() time.Time
}

type clientWindow struct {
	start time.Time
	count int
}

// PerMinute builds a limiter allowing max requests per client per
// one-minute window.
func PerMinute(max int) *Limiter {
	return &Limiter{
		max:     max,
		window:  time.Minute,
		clients: make(map[string]*clientWindow),
		now:     time.Now,
	}
}

// Allow reports whether one more request from key fits in its current
// window, and reserves it when it does.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	w, ok := l.clients[key]
	if !ok || now.Sub(w.start) >= l.window {
		w = &clientWindow{start: now}
		l.clients[key] = w
	}

	if l.max > 0 && w.count >= l.max {
		return false
	}
	w.count++
	return true
}

// prune drops windows that already ended so idle clients do not pin
// memory. Runs at most once per window.
func (l *Limiter) prune(now time.Time) {
	if now.Sub(l.lastPrune) < l.window {
		return
	}
	l.lastPrune = now
	for k, w := range l.clients {
		if now.Sub(w.start) >= l.window {
			delete(l.clients, k)
		}
	}
}

// Middleware rejects over-budget requests with a structured 429 response.
// Clients are keyed by IP.
func Middleware(l *Limiter, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      message,
				"retryAfter": 60,
			})
			return
		}
		c.Next()
	}
}
