package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultAuthRPM = 10

	// Limiters idle longer than this are dropped once the table grows past
	// maxTrackedClients.
	limiterIdleTTL    = 10 * time.Minute
	maxTrackedClients = 1000
)

// clientLimiter holds the buckets of one client IP. general is nil when
// general traffic is unlimited.
type clientLimiter struct {
	general  *rate.Limiter
	auth     *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware applies per-IP token buckets: a strict one for the
// auth endpoints and a general one for everything else. Health and metrics endpoints are exempt.
type RateLimitMiddleware struct {
	generalRPM int
	authRPM    int

	mu      sync.Mutex
	clients map[string]*clientLimiter
}

// NewRateLimitMiddleware builds the limiter. generalRPM <= 0 disables the
// general bucket; authRPM <= 0 falls back to 10 per minute.
func NewRateLimitMiddleware(generalRPM int, authRPM int) *RateLimitMiddleware {
	if authRPM <= 0 {
		authRPM = defaultAuthRPM
	}

	return &RateLimitMiddleware{
		generalRPM: generalRPM,
		authRPM:    authRPM,
		clients:    map[string]*clientLimiter{},
	}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isHealthCheck(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		limiter := m.getLimiter(extractClientIP(r))

		bucket := limiter.general
		if strings.HasPrefix(strings.ToLower(r.URL.Path), "/api/v1/auth") {
			bucket = limiter.auth
		}

		if bucket != nil && !bucket.Allow() {
			w.Header().Set("Retry-After", retryAfter(bucket))
			writeJSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func isHealthCheck(path string) bool {
	return path == "/health" || path == "/metrics"
}

// retryAfter is the whole number of seconds until limiter refills one token.
func retryAfter(limiter *rate.Limiter) string {
	perToken := 1 / float64(limiter.Limit())
	return strconv.Itoa(int(math.Max(1, math.Ceil(perToken-1e-9))))
}

func perMinute(rpm int) *rate.Limiter {
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm)
}

func (m *RateLimitMiddleware) getLimiter(clientIP string) *clientLimiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	limiter, exists := m.clients[clientIP]
	if !exists {
		limiter = &clientLimiter{auth: perMinute(m.authRPM)}
		if m.generalRPM > 0 {
			limiter.general = perMinute(m.generalRPM)
		}
		m.clients[clientIP] = limiter
	}
	limiter.lastSeen = now
	m.gcLocked(now)

	return limiter
}

func (m *RateLimitMiddleware) gcLocked(now time.Time) {
	if len(m.clients) < maxTrackedClients {
		return
	}

	cutoff := now.Add(-limiterIdleTTL)
	for ip, limiter := range m.clients {
		if limiter.lastSeen.Before(cutoff) {
			delete(m.clients, ip)
		}
	}
}

// extractClientIP prefers the first X-Forwarded-For hop, then X-Real-IP,
// then the connection's remote address.
func extractClientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	remote := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(remote); err == nil && host != "" {
		return host
	}
	if remote == "" {
		return "unknown"
	}
	return remote
}
