// Package ratelimit ограничивает частоту сообщений по имени отправителя,
// независимо от комнаты.
package ratelimit

import (
	"context"
	"time"
)

const DefaultWindow = 5 * time.Second

// Limiter разрешает сообщение, если от sender ещё не было принятых сообщений
// или с последнего принятого прошло не меньше окна. При разрешении now
// запоминается как время последнего принятого сообщения.
type Limiter interface {
	Allow(ctx context.Context, sender string, now time.Time) (bool, error)
}

// Pruner — хранилище, которое умеет забывать отправителей с истёкшим окном.
type Pruner interface {
	Prune(now time.Time) int
}
