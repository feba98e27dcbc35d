package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cwrk-planet/watch-party/internal/domain"
	"github.com/cwrk-planet/watch-party/internal/memstore"
	"github.com/cwrk-planet/watch-party/pkg/logger"

	"github.com/jonboulle/clockwork"
)

type RoomService struct {
	rooms *memstore.RoomRepository
	clock clockwork.Clock
}

func NewRoomService(rooms *memstore.RoomRepository, clock clockwork.Clock) *RoomService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RoomService{rooms: rooms, clock: clock}
}

// CreateRoom создаёт комнату "{username}'s room" без ссылки на видео.
func (s *RoomService) CreateRoom(ctx context.Context, username string) (*domain.Room, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.ErrUsernameRequired
	}

	room, err := s.rooms.Create(username, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("rooms.Create: %w", err)
	}

	logger.FromContext(ctx).Info("room created",
		logger.Room(room.Code),
		slog.String("owner", username))
	return room, nil
}

// SetDetails задаёт ссылку и название. Повторный вызов перенацеливает комнату.
func (s *RoomService) SetDetails(ctx context.Context, code, mediaTarget, mediaTitle string) error {
	room, err := s.rooms.Get(code)
	if err != nil {
		return err
	}
	if err := room.SetDetails(mediaTarget, mediaTitle, s.clock.Now()); err != nil {
		return err
	}

	logger.FromContext(ctx).Debug("room details set",
		logger.Room(code),
		slog.Bool("configured", mediaTarget != ""))
	return nil
}

// CurrentTime — позиция часов комнаты, обращение считается активностью.
func (s *RoomService) CurrentTime(_ context.Context, code string) (int64, error) {
	room, err := s.rooms.Get(code)
	if err != nil {
		return 0, err
	}
	return room.ObserveClock(s.clock.Now()), nil
}

// Details возвращает состояние комнаты вместе с чатом и отмечает активность.
func (s *RoomService) Details(_ context.Context, code string) (domain.RoomSnapshot, error) {
	room, err := s.rooms.Get(code)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	return room.Observe(s.clock.Now()), nil
}

// Touch отмечает активность без чтения состояния (пинг live-канала).
func (s *RoomService) Touch(_ context.Context, code string) error {
	room, err := s.rooms.Get(code)
	if err != nil {
		return err
	}
	return room.Touch(s.clock.Now())
}

// ListRooms — только настроенные комнаты; активность не трогает.
func (s *RoomService) ListRooms(_ context.Context) []domain.RoomSummary {
	return s.rooms.ListActive()
}
