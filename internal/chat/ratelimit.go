package chat

import (
	"sync"
	"time"
)

// Значения по умолчанию: не больше 5 сообщений за скользящую секунду.
const (
	DefaultRateWindow = time.Second
	DefaultRateMax    = 5
)

// RateLimiter — скользящее окно на каждую сессию.
type RateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	windows map[string][]time.Time
}

// NewRateLimiter создаёт лимитер на max попыток за window.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	if max < 1 {
		max = DefaultRateMax
	}
	if window <= 0 {
		window = DefaultRateWindow
	}
	return &RateLimiter{
		window:  window,
		max:     max,
		windows: make(map[string][]time.Time),
	}
}

// Attempt чистит устаревшие отметки и пропускает попытку, если в окне
// меньше max записей. Отклонённая попытка не записывается.
func (rl *RateLimiter) Attempt(sessionID string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	stamps := rl.windows[sessionID]
	kept := stamps[:0]
	for _, ts := range stamps {
		if now.Sub(ts) < rl.window {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= rl.max {
		rl.windows[sessionID] = kept
		return false
	}
	rl.windows[sessionID] = append(kept, now)
	return true
}

// Release забывает окно сессии.
func (rl *RateLimiter) Release(sessionID string) {
	rl.mu.Lock()
	delete(rl.windows, sessionID)
	rl.mu.Unlock()
}
