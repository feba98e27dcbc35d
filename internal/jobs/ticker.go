package jobs

import (
	"context"
	"log/slog"

	"github.com/cwrk-planet/watch-party/internal/domain"
	"github.com/cwrk-planet/watch-party/internal/memstore"
	"github.com/cwrk-planet/watch-party/pkg/logger"
)

const DefaultTickStep = 5

type TickNotifier interface {
	RoomTicked(code string, currentTime int64)
}

// Ticker двигает часы всех настроенных комнат на фиксированный шаг.
// Часы синтетические: пропущенный тик не догоняется.
type Ticker struct {
	rooms    *memstore.RoomRepository
	step     int64
	notifier TickNotifier
}

func NewTicker(rooms *memstore.RoomRepository, step int64, notifier TickNotifier) *Ticker {
	if step <= 0 {
		step = DefaultTickStep
	}
	return &Ticker{rooms: rooms, step: step, notifier: notifier}
}

func (t *Ticker) Name() string { return "ticker" }

func (t *Ticker) RunPass(ctx context.Context) {
	advanced := 0
	failed := forEachRoom(ctx, t.Name(), t.rooms.Rooms(), func(room *domain.Room) {
		cur, moved := room.Advance(t.step)
		if !moved {
			return
		}
		advanced++
		if t.notifier != nil {
			t.notifier.RoomTicked(room.Code, cur)
		}
	})

	logger.L().Debug("tick pass done",
		logger.Job(t.Name()),
		slog.Int("advanced", advanced),
		slog.Int("failed", failed))
}
