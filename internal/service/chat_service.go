package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/cwrk-planet/watch-party/internal/domain"
	"github.com/cwrk-planet/watch-party/internal/memstore"
	"github.com/cwrk-planet/watch-party/internal/ratelimit"
	"github.com/cwrk-planet/watch-party/pkg/logger"

	"github.com/jonboulle/clockwork"
)

// ChatNotifier получает принятые сообщения (live-канал комнаты).
type ChatNotifier interface {
	MessagePosted(code string, msg domain.ChatMessage)
}

type nopChatNotifier struct{}

func (nopChatNotifier) MessagePosted(string, domain.ChatMessage) {}

type ChatConfig struct {
	MaxHistory int // 0 — без ограничения
	MaxLength  int // в символах, 0 — без ограничения
}

type PostMessage struct {
	Username       string
	ProfilePicture string
	Message        string
}

type ChatService struct {
	rooms    *memstore.RoomRepository
	limiter  ratelimit.Limiter
	clock    clockwork.Clock
	notifier ChatNotifier
	cfg      ChatConfig
}

func NewChatService(
	rooms *memstore.RoomRepository,
	limiter ratelimit.Limiter,
	clock clockwork.Clock,
	notifier ChatNotifier,
	cfg ChatConfig,
) *ChatService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if notifier == nil {
		notifier = nopChatNotifier{}
	}
	return &ChatService{
		rooms:    rooms,
		limiter:  limiter,
		clock:    clock,
		notifier: notifier,
		cfg:      cfg,
	}
}

// Post проверяет поля, затем лимит отправителя, и только потом ищет комнату.
// Поэтому сообщение в несуществующую комнату всё равно расходует окно лимита.
// Пробелы учитываются только при проверке на пустоту: имя и текст
// сохраняются как пришли, лимит считается по имени как есть.
func (s *ChatService) Post(ctx context.Context, code string, in PostMessage) (domain.ChatMessage, error) {
	if strings.TrimSpace(in.Username) == "" || strings.TrimSpace(in.Message) == "" {
		return domain.ChatMessage{}, domain.ErrMessageRequired
	}
	if s.cfg.MaxLength > 0 && utf8.RuneCountInString(in.Message) > s.cfg.MaxLength {
		return domain.ChatMessage{}, domain.ErrMessageTooLong
	}

	now := s.clock.Now()
	ok, err := s.limiter.Allow(ctx, in.Username, now)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("limiter.Allow: %w", err)
	}
	if !ok {
		return domain.ChatMessage{}, domain.ErrRateLimited
	}

	room, err := s.rooms.Get(code)
	if err != nil {
		return domain.ChatMessage{}, err
	}

	msg := domain.ChatMessage{
		SenderName: in.Username,
		AvatarRef:  in.ProfilePicture,
		Body:       in.Message,
		SentAt:     now,
	}
	// уборщик мог выселить комнату после Get
	if err := room.Append(msg, s.cfg.MaxHistory); err != nil {
		return domain.ChatMessage{}, err
	}
	s.notifier.MessagePosted(code, msg)

	logger.FromContext(ctx).Debug("chat message accepted",
		logger.Room(code),
		slog.String("sender", in.Username))
	return msg, nil
}
