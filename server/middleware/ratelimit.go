package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	apperrors "github.com/bleitz/meditai/errors"
	"github.com/bleitz/meditai/resilience"
)

// RateLimitConfig configures per-client request limiting.
type RateLimitConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// RequestsPerMinute is the sustained rate allowed per client.
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute" validate:"gte=0"`
	// Burst is the number of requests a client may make at once.
	Burst int `yaml:"burst" mapstructure:"burst" validate:"gte=0"`
	// KeyFunc identifies the client. Defaults to the client IP.
	KeyFunc func(*http.Request) string `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills in zero-value fields.
func (c *RateLimitConfig) ApplyDefaults() {
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = 30
	}
	if c.Burst <= 0 {
		c.Burst = 5
	}
	if c.KeyFunc == nil {
		c.KeyFunc = clientIP
	}
}

const idleClientTTL = 10 * time.Minute

// RateLimit rejects requests with 429 once a client exceeds its token bucket.
func RateLimit(cfg RateLimitConfig) Middleware {
	cfg.ApplyDefaults()
	limiters := newClientLimiters(cfg)
	retryAfter := strconv.Itoa(max(1, 60/cfg.RequestsPerMinute))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiters.get(cfg.KeyFunc(r)).Allow() {
				w.Header().Set("Retry-After", retryAfter)
				writeError(w, apperrors.RateLimited())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type clientLimiter struct {
	limiter  *resilience.RateLimiter
	lastSeen time.Time
}

type clientLimiters struct {
	mu      sync.Mutex
	cfg     RateLimitConfig
	clients map[string]*clientLimiter
	sweep   time.Time
	now     func() time.Time
}

func newClientLimiters(cfg RateLimitConfig) *clientLimiters {
	return &clientLimiters{
		cfg:     cfg,
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
}

// get returns the client's limiter, evicting idle clients at most once per TTL.
func (l *clientLimiters) get(key string) *resilience.RateLimiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.sweep) > idleClientTTL {
		for k, c := range l.clients {
			if now.Sub(c.lastSeen) > idleClientTTL {
				delete(l.clients, k)
			}
		}
		l.sweep = now
	}

	c, ok := l.clients[key]
	if !ok {
		c = &clientLimiter{limiter: resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Name:  "api:" + key,
			Rate:  float64(l.cfg.RequestsPerMinute) / 60,
			Burst: l.cfg.Burst,
		})}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter
}
