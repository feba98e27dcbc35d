package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cwrk-planet/watch-party/internal/domain"
	"github.com/cwrk-planet/watch-party/internal/jobs"
	"github.com/cwrk-planet/watch-party/internal/memstore"
	"github.com/cwrk-planet/watch-party/internal/ratelimit"
	"github.com/cwrk-planet/watch-party/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsFixture struct {
	clock   *clockwork.FakeClock
	rooms   *memstore.RoomRepository
	hub     *Hub
	roomSvc *service.RoomService
	chatSvc *service.ChatService
	srv     *httptest.Server
}

// opts правят сервер до старта: подмена зависимостей, короткий ping.
func newWsFixture(t *testing.T, opts ...func(*wsFixture, *Server)) *wsFixture {
	t.Helper()
	fc := clockwork.NewFakeClockAt(time.Date(2026, 1, 2, 20, 0, 0, 0, time.UTC))
	rooms := memstore.NewRoomRepository(nil)
	hub := NewHub()
	roomSvc := service.NewRoomService(rooms, fc)
	chatSvc := service.NewChatService(rooms, ratelimit.NewMemoryLimiter(5*time.Second), fc, hub, service.ChatConfig{})
	f := &wsFixture{clock: fc, rooms: rooms, hub: hub, roomSvc: roomSvc, chatSvc: chatSvc}

	wsSrv := NewServer(hub, roomSvc, chatSvc)
	for _, opt := range opts {
		opt(f, wsSrv)
	}

	r := chi.NewRouter()
	r.Get("/ws/{code}", wsSrv.HandleWS)
	f.srv = httptest.NewServer(r)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *wsFixture) reaper() *jobs.Reaper {
	return jobs.NewReaper(f.rooms, f.clock, time.Minute, nil, f.hub)
}

func (f *wsFixture) dial(t *testing.T, code string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws/" + code
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func (f *wsFixture) waitSubscribers(t *testing.T, code string, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return f.hub.Count(code) == n }, 2*time.Second, 10*time.Millisecond)
}

type received struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func readEvent(t *testing.T, conn *websocket.Conn) received {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev received
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func payload[T any](t *testing.T, ev received) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(ev.Payload, &v))
	return v
}

func TestWS_StateTickAndChat(t *testing.T) {
	f := newWsFixture(t)
	ctx := t.Context()

	room, err := f.roomSvc.CreateRoom(ctx, "bob")
	require.NoError(t, err)
	require.NoError(t, f.roomSvc.SetDetails(ctx, room.Code, "foo.mp4", "Foo"))

	conn := f.dial(t, room.Code)
	ev := readEvent(t, conn)
	require.Equal(t, TypeState, ev.Type)
	assert.Equal(t, StatePayload{
		Code:       room.Code,
		VideoURL:   "foo.mp4",
		RoomName:   "bob's room",
		MovieTitle: "Foo",
	}, payload[StatePayload](t, ev))
	f.waitSubscribers(t, room.Code, 1)

	jobs.NewTicker(f.rooms, 5, f.hub).RunPass(ctx)
	ev = readEvent(t, conn)
	require.Equal(t, TypeTick, ev.Type)
	assert.Equal(t, int64(5), payload[TickPayload](t, ev).CurrentTime)

	// сообщение через REST-путь тоже приходит подписчикам
	_, err = f.chatSvc.Post(ctx, room.Code, service.PostMessage{Username: "alice", Message: "hi"})
	require.NoError(t, err)
	ev = readEvent(t, conn)
	require.Equal(t, TypeChat, ev.Type)
	chat := payload[ChatPayload](t, ev)
	assert.Equal(t, "alice", chat.Username)
	assert.Equal(t, "hi", chat.Message)
	assert.NotZero(t, chat.Timestamp)
}

func TestWS_InboundChatAndRateLimit(t *testing.T) {
	f := newWsFixture(t)
	room, err := f.roomSvc.CreateRoom(t.Context(), "bob")
	require.NoError(t, err)

	conn := f.dial(t, room.Code)
	require.Equal(t, TypeState, readEvent(t, conn).Type)

	send := func(user, text string) {
		require.NoError(t, conn.WriteJSON(map[string]any{
			"type":    TypeChat,
			"payload": map[string]string{"username": user, "message": text},
		}))
	}

	send("bob", "first")
	ev := readEvent(t, conn)
	require.Equal(t, TypeChat, ev.Type)
	assert.Equal(t, "first", payload[ChatPayload](t, ev).Message)

	send("bob", "second")
	ev = readEvent(t, conn)
	require.Equal(t, TypeError, ev.Type)
	assert.Contains(t, payload[ErrorPayload](t, ev).Error, "too quickly")

	send("", "anon")
	ev = readEvent(t, conn)
	require.Equal(t, TypeError, ev.Type)
	assert.Equal(t, "username and message are required", payload[ErrorPayload](t, ev).Error)

	snap, err := f.roomSvc.Details(t.Context(), room.Code)
	require.NoError(t, err)
	assert.Len(t, snap.Chat, 1)
}

func TestWS_EvictedClosesConnection(t *testing.T) {
	f := newWsFixture(t)
	room, err := f.roomSvc.CreateRoom(t.Context(), "bob")
	require.NoError(t, err)

	conn := f.dial(t, room.Code)
	require.Equal(t, TypeState, readEvent(t, conn).Type)
	f.waitSubscribers(t, room.Code, 1)

	// неконфигурированная комната уходит на первом же проходе
	f.reaper().RunPass(t.Context())

	ev := readEvent(t, conn)
	require.Equal(t, TypeEvicted, ev.Type)
	assert.Equal(t, room.Code, payload[EvictedPayload](t, ev).Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), err.Error())
	assert.Zero(t, f.hub.Count(room.Code))
}

func TestWS_UnknownRoom(t *testing.T) {
	f := newWsFixture(t)

	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws/NOPE1"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// reapAfterDetails выселяет комнаты сразу после того, как HandleWS прочитал
// состояние, но до подписки в hub.
type reapAfterDetails struct {
	RoomSvc
	reap func()
}

func (r reapAfterDetails) Details(ctx context.Context, code string) (domain.RoomSnapshot, error) {
	snap, err := r.RoomSvc.Details(ctx, code)
	r.reap()
	return snap, err
}

func TestWS_EvictedBetweenLookupAndSubscribe(t *testing.T) {
	f := newWsFixture(t, func(f *wsFixture, s *Server) {
		s.roomSvc = reapAfterDetails{
			RoomSvc: f.roomSvc,
			reap:    func() { f.reaper().RunPass(context.Background()) },
		}
	})
	room, err := f.roomSvc.CreateRoom(t.Context(), "bob")
	require.NoError(t, err)

	conn := f.dial(t, room.Code)

	ev := readEvent(t, conn)
	require.Equal(t, TypeEvicted, ev.Type)
	assert.Equal(t, room.Code, payload[EvictedPayload](t, ev).Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), err.Error())
	assert.Zero(t, f.hub.Count(room.Code))
	assert.Zero(t, f.rooms.Len())
}

func TestWS_PongKeepsWatchedRoomAlive(t *testing.T) {
	f := newWsFixture(t, func(_ *wsFixture, s *Server) {
		s.pingEvery = 100 * time.Millisecond
	})
	ctx := t.Context()
	room, err := f.roomSvc.CreateRoom(ctx, "bob")
	require.NoError(t, err)
	require.NoError(t, f.roomSvc.SetDetails(ctx, room.Code, "foo.mp4", "Foo"))

	conn := f.dial(t, room.Code)
	require.Equal(t, TypeState, readEvent(t, conn).Type)
	f.waitSubscribers(t, room.Code, 1)

	// клиент отвечает на ping только пока читает
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	f.clock.Advance(90 * time.Second)
	require.Eventually(t, func() bool {
		return room.Snapshot().LastActivityAt.Equal(f.clock.Now())
	}, 2*time.Second, 10*time.Millisecond, "pong should move last activity")

	f.reaper().RunPass(ctx)
	_, err = f.rooms.Get(room.Code)
	require.NoError(t, err, "watched room survives a pass past idle since creation")

	// без клиента комната уходит по простою
	require.NoError(t, conn.Close())
	f.waitSubscribers(t, room.Code, 0)
	f.clock.Advance(2 * time.Minute)
	f.reaper().RunPass(ctx)
	_, err = f.rooms.Get(room.Code)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}
