// SPDX-License-Identifier: MIT

// Package ratelimit throttles login attempts with token buckets.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var (
	rateLimitExceeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "onboard",
			Name:      "ratelimit_exceeded_total",
			Help:      "Total rate limit rejections",
		},
		[]string{"limit_type", "scope"},
	)
)

// Config holds rate limiting configuration
type Config struct {
	// Global limits
	GlobalRate  rate.Limit // requests per second
	GlobalBurst int        // max burst size

	// Per-client limits
	PerClientRate  rate.Limit
	PerClientBurst int

	// Cleanup interval for per-client limiters
	CleanupInterval time.Duration
}

// DefaultConfig returns the login defaults: 10 attempts per minute per client.
func DefaultConfig() Config {
	return PerMinute(10)
}

// PerMinute builds a config allowing n attempts per minute per client, with a
// burst of n and a global ceiling ten times higher.
func PerMinute(n int) Config {
	if n <= 0 {
		n = 1
	}
	perClient := rate.Limit(float64(n) / 60)
	return Config{
		GlobalRate:      perClient * 10,
		GlobalBurst:     n * 10,
		PerClientRate:   perClient,
		PerClientBurst:  n,
		CleanupInterval: 5 * time.Minute,
	}
}

// Limiter tracks one bucket per client plus a global bucket.
type Limiter struct {
	config Config

	global    *rate.Limiter
	perClient map[string]*clientLimiter
	mu        sync.Mutex

	lastCleanup time.Time
	now         func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a new rate limiter with the given config
func New(config Config) *Limiter {
	return &Limiter{
		config:      config,
		global:      rate.NewLimiter(config.GlobalRate, config.GlobalBurst),
		perClient:   make(map[string]*clientLimiter),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

// Allow reports whether one more attempt from clientIP is allowed in scope.
func (l *Limiter) Allow(clientIP, scope string) bool {
	if !l.global.Allow() {
		rateLimitExceeded.WithLabelValues("global", scope).Inc()
		return false
	}

	if !l.clientLimiter(clientIP).Allow() {
		rateLimitExceeded.WithLabelValues("per_client", scope).Inc()
		return false
	}

	l.maybeCleanup()
	return true
}

// Tracked returns the number of clients with a live bucket.
func (l *Limiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.perClient)
}

func (l *Limiter) clientLimiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, exists := l.perClient[ip]
	if !exists {
		c = &clientLimiter{limiter: rate.NewLimiter(l.config.PerClientRate, l.config.PerClientBurst)}
		l.perClient[ip] = c
	}
	c.lastSeen = l.now()
	return c.limiter
}

// maybeCleanup drops buckets not used for a full cleanup interval.
func (l *Limiter) maybeCleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastCleanup) < l.config.CleanupInterval {
		return
	}
	for ip, c := range l.perClient {
		if now.Sub(c.lastSeen) >= l.config.CleanupInterval {
			delete(l.perClient, ip)
		}
	}
	l.lastCleanup = now
}

// Middleware rejects requests over the limit. A nil rejected handler
// answers with a plain 429.
func (l *Limiter) Middleware(scope string, rejected http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(GetClientIP(r), scope) {
				w.Header().Set("Retry-After", "60")
				if rejected != nil {
					rejected(w, r)
					return
				}
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetClientIP extracts the real client IP from the request
func GetClientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs: "client, proxy1, proxy2"
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
