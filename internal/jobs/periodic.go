// Package jobs — периодические проходы по реестру комнат: тикер часов
// воспроизведения и уборщик устаревших комнат.
package jobs

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/cwrk-planet/watch-party/internal/domain"
	"github.com/cwrk-planet/watch-party/pkg/logger"

	"github.com/jonboulle/clockwork"
)

type Job interface {
	Name() string
	RunPass(ctx context.Context)
}

// Run вызывает job.RunPass раз в every, пока ctx не отменён. Проходы идут
// в одной горутине, поэтому одна задача никогда не пересекается сама с собой;
// тики, пришедшие во время долгого прохода, теряются.
func Run(ctx context.Context, clock clockwork.Clock, every time.Duration, job Job) {
	t := clock.NewTicker(every)
	defer t.Stop()

	logger.L().Info("job started", logger.Job(job.Name()), slog.Duration("every", every))
	for {
		select {
		case <-ctx.Done():
			logger.L().Info("job stopped", logger.Job(job.Name()))
			return
		case <-t.Chan():
			job.RunPass(ctx)
		}
	}
}

// forEachRoom изолирует панику в обработке одной комнаты, проход продолжается.
func forEachRoom(ctx context.Context, job string, rooms []*domain.Room, fn func(*domain.Room)) (failed int) {
	for _, room := range rooms {
		if ctx.Err() != nil {
			return failed
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					failed++
					logger.L().Error("job room panic",
						logger.Job(job),
						logger.Room(room.Code),
						slog.Any("panic", r),
						slog.String("stack", string(debug.Stack())))
				}
			}()
			fn(room)
		}()
	}
	return failed
}
