package memstore

import (
	"sort"
	"sync"
	"time"

	"github.com/cwrk-planet/watch-party/internal/domain"
)

// RoomRepository — реестр комнат в памяти: код -> комната.
type RoomRepository struct {
	mu    sync.RWMutex
	rooms map[string]*domain.Room
	gen   CodeGenerator
}

func NewRoomRepository(gen CodeGenerator) *RoomRepository {
	if gen == nil {
		gen = RandomCode
	}
	return &RoomRepository{
		rooms: make(map[string]*domain.Room),
		gen:   gen,
	}
}

// Create выбирает свободный код и вставляет комнату под одной блокировкой,
// поэтому параллельные создания не получат одинаковый код.
func (r *RoomRepository) Create(owner string, now time.Time) (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for range maxCodeAttempts {
		code := r.gen()
		if _, taken := r.rooms[code]; taken {
			continue
		}
		room := domain.NewRoom(code, owner, now)
		r.rooms[code] = room
		return room, nil
	}
	return nil, domain.ErrCodeSpaceExhausted
}

func (r *RoomRepository) Get(code string) (*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[code]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

// RemoveIf удаляет комнату, если pred вернул true. pred вызывается под
// блокировкой реестра, поэтому между проверкой и удалением код не переиспользуется.
func (r *RoomRepository) RemoveIf(code string, pred func(*domain.Room) bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[code]
	if !ok || !pred(room) {
		return false
	}
	delete(r.rooms, code)
	return true
}

// Rooms возвращает срез живых комнат. Блокировка реестра не держится,
// пока вызывающий работает с комнатами.
func (r *RoomRepository) Rooms() []*domain.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, room)
	}
	return out
}

// ListActive — комнаты с заданной ссылкой, отсортированы по коду.
func (r *RoomRepository) ListActive() []domain.RoomSummary {
	rooms := r.Rooms()
	out := make([]domain.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		if s, ok := room.Summary(); ok {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (r *RoomRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
