package handlers

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hanko-field/namedivider/internal/platform/httpx"
)

const rateLimiterIdleTTL = 10 * time.Minute

type rateLimiter interface {
	Allow(key string) bool
}

// clientRateLimiter keeps one token bucket per client key and forgets idle clients.
type clientRateLimiter struct {
	limit rate.Limit
	burst int
	clock func() time.Time
	mu    sync.Mutex
	store map[string]*rateEntry
}

type rateEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newClientRateLimiter(perSecond float64, burst int, clock func() time.Time) rateLimiter {
	if perSecond <= 0 || burst <= 0 {
		return nil
	}
	if clock == nil {
		clock = time.Now
	}
	return &clientRateLimiter{
		limit: rate.Limit(perSecond),
		burst: burst,
		clock: clock,
		store: make(map[string]*rateEntry),
	}
}

func (l *clientRateLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "anonymous"
	}
	now := l.clock()
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.store[key]
	if !ok {
		l.pruneIdleLocked(now)
		entry = &rateEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.store[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func (l *clientRateLimiter) pruneIdleLocked(now time.Time) {
	for key, entry := range l.store {
		if now.Sub(entry.lastSeen) > rateLimiterIdleTTL {
			delete(l.store, key)
		}
	}
}

func rateLimitMiddleware(limiter rateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientKey(r)) {
				w.Header().Set("Retry-After", "1")
				httpx.WriteError(r.Context(), w, httpx.NewError(httpx.CodeRateLimited, "too many requests", http.StatusTooManyRequests))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
