package ratelimit

import (
	"context"
	"sync"
	"time"
)

type MemoryLimiter struct {
	window time.Duration

	mu   sync.Mutex
	last map[string]time.Time
}

func NewMemoryLimiter(window time.Duration) *MemoryLimiter {
	if window <= 0 {
		window = DefaultWindow
	}
	return &MemoryLimiter{
		window: window,
		last:   make(map[string]time.Time),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, sender string, now time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if prev, ok := l.last[sender]; ok && now.Sub(prev) < l.window {
		return false, nil
	}
	l.last[sender] = now
	return true, nil
}

// Prune удаляет записи, окно которых уже прошло: для них Allow и так вернёт true.
func (l *MemoryLimiter) Prune(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for sender, prev := range l.last {
		if now.Sub(prev) >= l.window {
			delete(l.last, sender)
			n++
		}
	}
	return n
}

func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.last)
}
