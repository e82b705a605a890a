// middleware/rate_limiter.go
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/HSouheill/scholarfund_backend/models"
)

type endpointLimit struct {
	limit rate.Limit
	burst int
}

type RateLimiter struct {
	ips            map[string]*rate.Limiter
	blockedIPs     map[string]time.Time
	mu             *sync.RWMutex
	defaultLimit   rate.Limit
	defaultBurst   int
	blockDuration  time.Duration
	endpointLimits map[string]endpointLimit
	now            func() time.Time
}

func NewRateLimiter() *RateLimiter {
	limiter := &RateLimiter{
		ips:            make(map[string]*rate.Limiter),
		blockedIPs:     make(map[string]time.Time),
		mu:             &sync.RWMutex{},
		defaultLimit:   rate.Every(100 * time.Millisecond), // 10 requests per second
		defaultBurst:   20,
		blockDuration:  5 * time.Minute,
		endpointLimits: make(map[string]endpointLimit),
		now:            time.Now,
	}

	// Emails go out from these, keep them slow
	limiter.SetEndpointLimit("/api/otp/send", rate.Every(10*time.Second), 3)
	limiter.SetEndpointLimit("/api/otp/resend", rate.Every(10*time.Second), 3)
	limiter.SetEndpointLimit("/api/otp/verify", rate.Every(2*time.Second), 5)

	// Signature login
	limiter.SetEndpointLimit("/api/auth/verify", rate.Every(2*time.Second), 5)

	// Submissions upload documents
	limiter.SetEndpointLimit("/api/applications", rate.Every(5*time.Second), 5)

	return limiter
}

// SetEndpointLimit overrides the limit of one route path
func (r *RateLimiter) SetEndpointLimit(path string, limit rate.Limit, burst int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpointLimits[path] = endpointLimit{limit: limit, burst: burst}
}

// StartCleanup drops expired blocks every interval until stop is closed
func (r *RateLimiter) StartCleanup(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.cleanupBlockedIPs()
			case <-stop:
				return
			}
		}
	}()
}

func (r *RateLimiter) cleanupBlockedIPs() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for key, blockUntil := range r.blockedIPs {
		if now.After(blockUntil) {
			delete(r.blockedIPs, key)
			// Also remove the limiter to reset its state
			delete(r.ips, key)
		}
	}
}

func (r *RateLimiter) RateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method == http.MethodOptions {
				return next(c)
			}

			path := c.Path()
			ip := c.RealIP()

			r.mu.RLock()
			limit, burst := r.defaultLimit, r.defaultBurst
			el, scoped := r.endpointLimits[path]
			if scoped {
				limit, burst = el.limit, el.burst
			}
			r.mu.RUnlock()

			// Scoped endpoints get their own bucket so a busy page does not
			// spend the login budget
			key := ip
			if scoped {
				key = ip + "|" + path
			}

			r.mu.Lock()
			if blockUntil, blocked := r.blockedIPs[key]; blocked {
				if r.now().Before(blockUntil) {
					r.mu.Unlock()
					return tooManyRequests(c, blockUntil)
				}
				delete(r.blockedIPs, key)
				delete(r.ips, key)
			}
			r.mu.Unlock()

			if !r.getLimiter(key, limit, burst).Allow() {
				blockUntil := r.now().Add(r.blockDuration)
				r.mu.Lock()
				r.blockedIPs[key] = blockUntil
				r.mu.Unlock()

				return tooManyRequests(c, blockUntil)
			}

			return next(c)
		}
	}
}

func (r *RateLimiter) getLimiter(key string, limit rate.Limit, burst int) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	limiter, exists := r.ips[key]
	if !exists {
		limiter = rate.NewLimiter(limit, burst)
		r.ips[key] = limiter
	}
	return limiter
}

func tooManyRequests(c echo.Context, retryAfter time.Time) error {
	c.Response().Header().Set("Retry-After", retryAfter.UTC().Format(http.TimeFormat))
	return c.JSON(http.StatusTooManyRequests, models.Response{
		Success: false,
		Error:   "Too many requests",
	})
}
