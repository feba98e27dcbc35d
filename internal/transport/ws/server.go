package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cwrk-planet/watch-party/internal/domain"
	"github.com/cwrk-planet/watch-party/internal/service"
	"github.com/cwrk-planet/watch-party/pkg/errs"
	"github.com/cwrk-planet/watch-party/pkg/httputil"
	"github.com/cwrk-planet/watch-party/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type RoomSvc interface {
	Details(ctx context.Context, code string) (domain.RoomSnapshot, error)
	Touch(ctx context.Context, code string) error
}

type ChatSvc interface {
	Post(ctx context.Context, code string, in service.PostMessage) (domain.ChatMessage, error)
}

type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub
	roomSvc  RoomSvc
	chatSvc  ChatSvc

	pingEvery  time.Duration
	sendBuffer int
}

func NewServer(hub *Hub, room RoomSvc, chat ChatSvc) *Server {
	return &Server{
		hub:     hub,
		roomSvc: room,
		chatSvc: chat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery:  15 * time.Second,
		sendBuffer: 32,
	}
}

// WS endpoint: GET /ws/{code}
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	log := logger.FromContext(r.Context()).With(logger.Room(code))

	snap, err := s.roomSvc.Details(r.Context(), code)
	if err != nil {
		status := errs.ToHTTP(err)
		if status >= http.StatusInternalServerError {
			log.Error("ws room lookup failed", logger.Err(err))
		}
		httputil.Error(w, status, err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		log.Warn("ws upgrade failed", logger.Err(err))
		return
	}

	c := newWsConn(conn, code, s.sendBuffer)
	s.hub.Add(c)

	// Уборщик мог выселить комнату между Details и Add: тогда RoomEvicted
	// этого подписчика уже не увидел. Выселение помечается до рассылки,
	// поэтому Touch после Add такой случай ловит.
	if err := s.roomSvc.Touch(r.Context(), code); err != nil {
		log.Info("ws room evicted before subscribe", logger.Err(err))
		s.hub.Remove(c)
		c.Send(Message{Type: TypeEvicted, Payload: EvictedPayload{Code: code}})
	} else {
		c.Send(Message{Type: TypeState, Payload: StatePayload{
			Code:        snap.Code,
			CurrentTime: snap.CurrentTime,
			VideoURL:    snap.MediaTarget,
			RoomName:    snap.DisplayName,
			MovieTitle:  snap.MediaTitle,
		}})
	}

	go s.writeLoop(c)
	s.readLoop(r.Context(), c, log)

	s.hub.Remove(c)
	if err := c.Close(); err != nil {
		log.Debug("ws close failed", logger.Err(err))
	}
}

func (s *Server) readLoop(ctx context.Context, c *wsConn, log *slog.Logger) {
	c.conn.SetReadLimit(64 << 10)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		// живой клиент считается активностью комнаты
		if err := s.roomSvc.Touch(ctx, c.code); err != nil {
			log.Debug("ws touch failed", logger.Err(err))
		}
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case TypeChat:
			var p ChatPayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				c.Send(Message{Type: TypeError, Payload: ErrorPayload{Error: "invalid payload"}})
				continue
			}
			// рассылку делает hub через ChatNotifier, отправитель тоже её получит
			_, err := s.chatSvc.Post(ctx, c.code, service.PostMessage{
				Username:       p.Username,
				ProfilePicture: p.ProfilePicture,
				Message:        p.Message,
			})
			if err != nil {
				if errs.ToHTTP(err) >= http.StatusInternalServerError {
					log.Error("ws chat post failed", logger.Err(err))
				}
				c.Send(Message{Type: TypeError, Payload: ErrorPayload{Error: err.Error()}})
			}
		default:
			// ignore
		}
	}
}

func (s *Server) writeLoop(c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				_ = c.Close()
				return
			}
			if msg.Type == TypeEvicted {
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "room evicted"),
					time.Now().Add(time.Second))
				_ = c.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				_ = c.Close()
				return
			}
		case <-c.closed:
			return
		}
	}
}

// --- helpers ---

type wsConn struct {
	conn *websocket.Conn
	code string

	send      chan Message
	closed    chan struct{}
	closeOnce sync.Once
}

func newWsConn(c *websocket.Conn, code string, buffer int) *wsConn {
	return &wsConn{
		conn:   c,
		code:   code,
		send:   make(chan Message, buffer),
		closed: make(chan struct{}),
	}
}

// Send не блокирует: при переполненном буфере событие теряется.
func (c *wsConn) Send(msg Message) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *wsConn) Close() (err error) {
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.conn.Close()
	})
	return err
}

func (c *wsConn) RoomCode() string { return c.code }
