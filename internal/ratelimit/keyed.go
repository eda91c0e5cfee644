package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// entry pairs a limiter with the last time it was touched, so the
// background sweep can reclaim keys nobody has hit in a while.
type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Keyed is a map of independently-ticking token buckets, one per key,
// created lazily on first use. It backs the two buckets the draft core
// exposes: per-session-and-token draft actions and per-owner mutations.
type Keyed struct {
	mu       sync.Mutex
	entries  map[string]*entry
	rps      float64
	burst    int
	maxIdle  time.Duration
}

// New creates a keyed limiter allowing rps requests per second with the
// given burst, per key.
func New(rps float64, burst int) *Keyed {
	k := &Keyed{
		entries: make(map[string]*entry),
		rps:     rps,
		burst:   burst,
		maxIdle: 10 * time.Minute,
	}
	go k.sweep()
	return k
}

// Allow reports whether the request keyed by key may proceed, creating a
// fresh bucket for unseen keys.
func (k *Keyed) Allow(key string) bool {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(rate.Limit(k.rps), k.burst)}
		k.entries[key] = e
	}
	e.lastSeen = time.Now()
	k.mu.Unlock()
	return e.limiter.Allow()
}

func (k *Keyed) sweep() {
	ticker := time.NewTicker(k.maxIdle)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-k.maxIdle)
		k.mu.Lock()
		for key, e := range k.entries {
			if e.lastSeen.Before(cutoff) {
				delete(k.entries, key)
			}
		}
		k.mu.Unlock()
	}
}

// Middleware returns a gin middleware that rejects requests whose keyFn
// result is over the bucket's rate with 429, and allows everything else.
// Stream endpoints must not be wired behind this middleware, per spec.
func (k *Keyed) Middleware(keyFn func(c *gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !k.Allow(keyFn(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// ActionKey builds the draft-action bucket key: session id plus the player
// token (or, if absent, the client address).
func ActionKey(sessionID, token, clientAddr string) string {
	if token != "" {
		return sessionID + ":" + token
	}
	return sessionID + ":" + clientAddr
}
