package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/cwrk-planet/watch-party/internal/domain"
	"github.com/cwrk-planet/watch-party/internal/memstore"
	"github.com/cwrk-planet/watch-party/internal/ratelimit"
	"github.com/cwrk-planet/watch-party/pkg/logger"

	"github.com/jonboulle/clockwork"
)

const DefaultIdleTimeout = time.Minute

type EvictNotifier interface {
	RoomEvicted(code string)
}

// Reaper удаляет комнаты без ссылки и комнаты, простаивающие дольше idle.
// Заодно чистит лимитер от отправителей с истёкшим окном.
type Reaper struct {
	rooms    *memstore.RoomRepository
	clock    clockwork.Clock
	idle     time.Duration
	pruner   ratelimit.Pruner
	notifier EvictNotifier
}

func NewReaper(
	rooms *memstore.RoomRepository,
	clock clockwork.Clock,
	idle time.Duration,
	pruner ratelimit.Pruner,
	notifier EvictNotifier,
) *Reaper {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &Reaper{rooms: rooms, clock: clock, idle: idle, pruner: pruner, notifier: notifier}
}

func (r *Reaper) Name() string { return "reaper" }

func (r *Reaper) RunPass(ctx context.Context) {
	now := r.clock.Now()

	evicted := 0
	failed := forEachRoom(ctx, r.Name(), r.rooms.Rooms(), func(room *domain.Room) {
		evict := func(rm *domain.Room) bool { return rm.Evict(now, r.idle) }
		if !r.rooms.RemoveIf(room.Code, evict) {
			return
		}
		evicted++
		if r.notifier != nil {
			r.notifier.RoomEvicted(room.Code)
		}
	})

	pruned := 0
	if r.pruner != nil {
		pruned = r.pruner.Prune(now)
	}

	level := slog.LevelDebug
	if evicted > 0 || failed > 0 {
		level = slog.LevelInfo
	}
	logger.L().Log(ctx, level, "reaper pass done",
		logger.Job(r.Name()),
		slog.Int("evicted", evicted),
		slog.Int("failed", failed),
		slog.Int("limiter_pruned", pruned),
		slog.Int("live", r.rooms.Len()))
}
