package api

import (
	"net/http"
	"sync"
	"time"
)

// rateLimiter is a fixed-window, per-client request limiter. The
// gateway fronts backends that rate-limit us in turn, so throttling at
// the door keeps a misbehaving client from burning the upstream quota
// shared by every buffer.
type rateLimiter struct {
	mu      sync.Mutex
	windows map[string]*clientWindow

	requests int
	window   time.Duration
}

type clientWindow struct {
	count   int
	resetAt time.Time
}

func newRateLimiter(requests int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		windows:  make(map[string]*clientWindow),
		requests: requests,
		window:   window,
	}
	go rl.janitor()
	return rl
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientKey(r)) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *rateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now().UTC()
	cw, ok := rl.windows[key]
	if !ok || now.After(cw.resetAt) {
		rl.windows[key] = &clientWindow{count: 1, resetAt: now.Add(rl.window)}
		return true
	}
	if cw.count < rl.requests {
		cw.count++
		return true
	}
	return false
}

// janitor drops expired windows so the map stays bounded.
func (rl *rateLimiter) janitor() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for range ticker.C {
		rl.mu.Lock()
		now := time.Now().UTC()
		for key, cw := range rl.windows {
			if now.After(cw.resetAt) {
				delete(rl.windows, key)
			}
		}
		rl.mu.Unlock()
	}
}

func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	return r.RemoteAddr
}
