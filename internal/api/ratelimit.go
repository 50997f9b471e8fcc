package api

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/khanhnv2901/endpoint-analyzer/internal/shared/clock"
)

const (
	limiterIdleTTL       = 5 * time.Minute
	limiterSweepInterval = time.Minute
)

// rateLimiterMap manages per-IP rate limiters. Idle limiters are swept on
// access, at most once per limiterSweepInterval.
type rateLimiterMap struct {
	mu        sync.Mutex
	clock     clock.Clock
	limiters  map[string]*ipLimiter
	lastSweep time.Time
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiterMap(clk clock.Clock) *rateLimiterMap {
	clk = clock.OrReal(clk)
	return &rateLimiterMap{
		clock:     clk,
		limiters:  make(map[string]*ipLimiter),
		lastSweep: clk.Now(),
	}
}

func (m *rateLimiterMap) getLimiter(ip string, rps, burst int) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	if now.Sub(m.lastSweep) >= limiterSweepInterval {
		m.sweep(now)
	}

	limiter, exists := m.limiters[ip]
	if !exists {
		limiter = &ipLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
		m.limiters[ip] = limiter
	}
	limiter.lastSeen = now
	return limiter.limiter
}

// sweep removes limiters idle for longer than limiterIdleTTL. Callers hold mu.
func (m *rateLimiterMap) sweep(now time.Time) {
	for ip, limiter := range m.limiters {
		if now.Sub(limiter.lastSeen) > limiterIdleTTL {
			delete(m.limiters, ip)
		}
	}
	m.lastSweep = now
}

func (m *rateLimiterMap) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.limiters)
}
