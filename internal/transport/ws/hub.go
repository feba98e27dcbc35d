package ws

import (
	"sync"

	"github.com/cwrk-planet/watch-party/internal/domain"
)

type Conn interface {
	Send(msg Message) bool
	Close() error
	RoomCode() string
}

// Hub — подписчики live-канала по кодам комнат. Реализует уведомления
// для тикера, уборщика и чата.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[Conn]struct{} // code -> set of connections
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[Conn]struct{})}
}

func (h *Hub) Add(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rs, ok := h.rooms[c.RoomCode()]
	if !ok {
		rs = make(map[Conn]struct{})
		h.rooms[c.RoomCode()] = rs
	}
	rs[c] = struct{}{}
}

func (h *Hub) Remove(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if rs, ok := h.rooms[c.RoomCode()]; ok {
		delete(rs, c)
		if len(rs) == 0 {
			delete(h.rooms, c.RoomCode())
		}
	}
}

func (h *Hub) Count(code string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[code])
}

func (h *Hub) Broadcast(code string, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[code] {
		_ = c.Send(msg) // best-effort, медленный клиент теряет события
	}
}

func (h *Hub) RoomTicked(code string, currentTime int64) {
	h.Broadcast(code, Message{Type: TypeTick, Payload: TickPayload{Code: code, CurrentTime: currentTime}})
}

func (h *Hub) MessagePosted(code string, msg domain.ChatMessage) {
	h.Broadcast(code, Message{Type: TypeChat, Payload: ChatPayload{
		Username:       msg.SenderName,
		ProfilePicture: msg.AvatarRef,
		Message:        msg.Body,
		Timestamp:      msg.SentAt.UnixMilli(),
	}})
}

// RoomEvicted рассылает evicted и отвязывает подписчиков; соединения
// закрываются после отправки этого события.
func (h *Hub) RoomEvicted(code string) {
	h.mu.Lock()
	rs := h.rooms[code]
	delete(h.rooms, code)
	h.mu.Unlock()

	for c := range rs {
		_ = c.Send(Message{Type: TypeEvicted, Payload: EvictedPayload{Code: code}})
	}
}
