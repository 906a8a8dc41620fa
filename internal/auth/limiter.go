package auth

import (
	"sync"
	"time"
)

// limiter counts failed sign-ins per key. Once max failures land inside one
// window the key is blocked until the window, measured from the first
// failure, has passed.
type limiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	fails  map[string]failWindow
}

type failWindow struct {
	start time.Time
	count int
}

func newLimiter(max int, window time.Duration) *limiter {
	return &limiter{max: max, window: window, fails: make(map[string]failWindow)}
}

func (l *limiter) blocked(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, ok := l.fails[key]
	if !ok {
		return false
	}
	if now.Sub(f.start) >= l.window {
		delete(l.fails, key)
		return false
	}
	return f.count >= l.max
}

func (l *limiter) fail(key string, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, ok := l.fails[key]
	if !ok || now.Sub(f.start) >= l.window {
		f = failWindow{start: now}
	}
	f.count++
	l.fails[key] = f
}

func (l *limiter) reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.fails, key)
}
