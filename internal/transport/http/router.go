package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/cwrk-planet/watch-party/internal/transport/ws"
	"github.com/cwrk-planet/watch-party/pkg/httputil"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterConfig struct {
	MaxBodyBytes   int64
	RequestTimeout time.Duration
	AllowedOrigins []string
	StaticDir      string // пусто — статику не раздаём
	Logger         *slog.Logger
}

func NewRouter(h *Handler, wsServer *ws.Server, cfg RouterConfig) http.Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 10 << 20
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(httputil.EchoRequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(httputil.RequestLogger(cfg.Logger))
	r.Use(middlewareChi.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", httputil.HeaderRequestID},
		ExposedHeaders: []string{httputil.HeaderRequestID},
		MaxAge:         300,
	}))

	// WS живёт дольше таймаута запроса
	if wsServer != nil {
		r.Get("/ws/{code}", wsServer.HandleWS)
	}

	r.Group(func(api chi.Router) {
		api.Use(middlewareChi.Timeout(cfg.RequestTimeout))
		api.Use(middlewareChi.RequestSize(cfg.MaxBodyBytes))

		api.Get("/create-room", h.CreateRoom)
		api.Get("/set-room-details/{code}", h.SetRoomDetails)
		api.Get("/time/{code}", h.GetTime)
		api.Get("/room-details/{code}", h.GetRoomDetails)
		api.Get("/rooms", h.ListRooms)
		api.Post("/send-message/{code}", h.SendMessage)
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	return r
}
