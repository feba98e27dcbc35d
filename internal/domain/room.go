package domain

import (
	"sync"
	"time"
)

// Room — комната совместного просмотра. Поля под mu меняются только через
// методы: запросы, тикер и уборщик работают с комнатой параллельно.
type Room struct {
	Code        string
	DisplayName string

	mu             sync.Mutex
	evicted        bool // выставляет уборщик; после этого запись в комнату запрещена
	currentTime    int64
	mediaTarget    string
	mediaTitle     string
	lastActivityAt time.Time
	chat           []ChatMessage
}

// RoomSnapshot — согласованная копия состояния комнаты.
type RoomSnapshot struct {
	Code           string
	DisplayName    string
	MediaTarget    string
	MediaTitle     string
	CurrentTime    int64
	LastActivityAt time.Time
	Chat           []ChatMessage
}

// RoomSummary — строка списка активных комнат.
type RoomSummary struct {
	Code        string
	DisplayName string
	MediaTitle  string
}

func DisplayNameFor(owner string) string {
	return owner + "'s room"
}

func NewRoom(code, owner string, now time.Time) *Room {
	return &Room{
		Code:           code,
		DisplayName:    DisplayNameFor(owner),
		lastActivityAt: now,
	}
}

func (r *Room) Snapshot() RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() RoomSnapshot {
	chat := make([]ChatMessage, len(r.chat))
	copy(chat, r.chat)
	return RoomSnapshot{
		Code:           r.Code,
		DisplayName:    r.DisplayName,
		MediaTarget:    r.mediaTarget,
		MediaTitle:     r.mediaTitle,
		CurrentTime:    r.currentTime,
		LastActivityAt: r.lastActivityAt,
		Chat:           chat,
	}
}

// Observe отмечает активность клиента и возвращает снапшот.
func (r *Room) Observe(now time.Time) RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastActivityAt = now
	return r.snapshotLocked()
}

func (r *Room) Touch(now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.evicted {
		return ErrRoomNotFound
	}
	r.lastActivityAt = now
	return nil
}

// ObserveClock — Observe без копирования чата, для частого поллинга времени.
func (r *Room) ObserveClock(now time.Time) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastActivityAt = now
	return r.currentTime
}

// SetDetails перезаписывает ссылку и название без условий.
// Пустая ссылка возвращает комнату в состояние "не настроена".
func (r *Room) SetDetails(target, title string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.evicted {
		return ErrRoomNotFound
	}
	r.mediaTarget = target
	r.mediaTitle = title
	r.lastActivityAt = now
	return nil
}

func (r *Room) Configured() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mediaTarget != ""
}

func (r *Room) Summary() (RoomSummary, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mediaTarget == "" {
		return RoomSummary{}, false
	}
	return RoomSummary{Code: r.Code, DisplayName: r.DisplayName, MediaTitle: r.mediaTitle}, true
}

// Advance сдвигает часы на step, только если ссылка задана.
func (r *Room) Advance(step int64) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mediaTarget == "" {
		return r.currentTime, false
	}
	r.currentTime += step
	return r.currentTime, true
}

// Append добавляет сообщение в конец лога. maxHistory > 0 отрезает самые старые.
// В выселенную комнату не пишет: иначе клиент получил бы успех, а сообщение пропало.
func (r *Room) Append(msg ChatMessage, maxHistory int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.evicted {
		return ErrRoomNotFound
	}
	r.chat = append(r.chat, msg)
	if maxHistory > 0 && len(r.chat) > maxHistory {
		drop := len(r.chat) - maxHistory
		r.chat = append(r.chat[:0:0], r.chat[drop:]...)
	}
	r.lastActivityAt = msg.SentAt
	return nil
}

// Expired — предикат выселения: ссылки нет или простой строго больше idle.
func (r *Room) Expired(now time.Time, idle time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.expiredLocked(now, idle)
}

func (r *Room) expiredLocked(now time.Time, idle time.Duration) bool {
	return r.mediaTarget == "" || now.Sub(r.lastActivityAt) > idle
}

// Evict проверяет предикат и помечает комнату выселенной под одной блокировкой,
// так что запись, успевшая до пометки, учитывается в проверке.
func (r *Room) Evict(now time.Time, idle time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.evicted {
		return true
	}
	if !r.expiredLocked(now, idle) {
		return false
	}
	r.evicted = true
	return true
}

func (r *Room) Evicted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evicted
}
