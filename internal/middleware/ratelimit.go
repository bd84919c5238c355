package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// unlimitedPaths are never rate limited. Gateway webhook deliveries share
// source addresses and a throttled delivery only comes back as a retry.
var unlimitedPaths = map[string]bool{
	"/health":          true,
	"/webhooks/square": true,
}

// ClientLimiter keeps one token bucket per client address.
type ClientLimiter struct {
	visitors map[string]*visitor
	trusted  []netip.Prefix
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	ttl      time.Duration
	now      func() time.Time
}

// NewClientLimiter allows perMinute requests per client with the given burst.
// Clients idle for longer than ttl are forgotten. X-Forwarded-For is only
// honoured when the request comes from one of trustedProxies.
func NewClientLimiter(perMinute, burst int, ttl time.Duration, trustedProxies ...netip.Prefix) *ClientLimiter {
	return &ClientLimiter{
		visitors: make(map[string]*visitor),
		trusted:  trustedProxies,
		rate:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		ttl:      ttl,
		now:      time.Now,
	}
}

// ParseTrustedProxies parses CIDR blocks such as "10.0.0.0/8".
func ParseTrustedProxies(cidrs []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, cidr := range cidrs {
		p, err := netip.ParsePrefix(strings.TrimSpace(cidr))
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", cidr, err)
		}
		prefixes = append(prefixes, p.Masked())
	}
	return prefixes, nil
}

// Allow reports whether client may make a request now.
func (cl *ClientLimiter) Allow(client string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	now := cl.now()
	v, ok := cl.visitors[client]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(cl.rate, cl.burst)}
		cl.visitors[client] = v
	}
	v.lastSeen = now

	for ip, other := range cl.visitors {
		if now.Sub(other.lastSeen) > cl.ttl {
			delete(cl.visitors, ip)
		}
	}

	return v.limiter.AllowN(now, 1)
}

// RateLimit rejects requests from clients over their budget with 429.
// Health checks and gateway webhooks are never limited.
func RateLimit(cl *ClientLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if unlimitedPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			client := cl.clientIP(r)
			if !cl.Allow(client) {
				logger.WarnContext(r.Context(), "rate limit exceeded", "client", client, "path", r.URL.Path)
				w.Header().Set("Retry-After", "1")
				writeMiddlewareError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the peer address. Behind trusted proxies it walks
// X-Forwarded-For from the right and returns the first untrusted hop.
func (cl *ClientLimiter) clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if !cl.isTrusted(host) {
		return host
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !cl.isTrusted(hop) {
			return hop
		}
		host = hop
	}
	return host
}

func (cl *ClientLimiter) isTrusted(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range cl.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
