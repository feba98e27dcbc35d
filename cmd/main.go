package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cwrk-planet/watch-party/config"
	"github.com/cwrk-planet/watch-party/internal/jobs"
	"github.com/cwrk-planet/watch-party/internal/memstore"
	"github.com/cwrk-planet/watch-party/internal/ratelimit"
	"github.com/cwrk-planet/watch-party/internal/service"
	grpcx "github.com/cwrk-planet/watch-party/internal/transport/grpc"
	httpx "github.com/cwrk-planet/watch-party/internal/transport/http"
	"github.com/cwrk-planet/watch-party/internal/transport/ws"
	"github.com/cwrk-planet/watch-party/pkg/logger"

	"github.com/jonboulle/clockwork"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.ParseEnv(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		Level:     logger.ParseLevel(cfg.Logging.Level),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,

		SampleInitial:    cfg.Logging.SampleInitial,
		SampleThereafter: cfg.Logging.SampleThereafter,
	})
	slog.Info("starting watch-party",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()

	// --- rate limit ---
	var limiter ratelimit.Limiter
	switch cfg.RateLimit.Backend {
	case config.BackendRedis:
		rdb, err := ratelimit.NewRedisClient(ctx, cfg.RateLimit.RedisURL)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		limiter = ratelimit.NewRedisLimiter(rdb, cfg.RateLimit.Window)
	default:
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.Window)
	}
	// redis сам чистит ключи по TTL
	var pruner ratelimit.Pruner
	if p, ok := limiter.(ratelimit.Pruner); ok {
		pruner = p
	}

	// --- registry & services ---
	rooms := memstore.NewRoomRepository(nil)
	hub := ws.NewHub()

	roomSvc := service.NewRoomService(rooms, clock)
	chatSvc := service.NewChatService(rooms, limiter, clock, hub, service.ChatConfig{
		MaxHistory: cfg.Chat.MaxHistory,
		MaxLength:  cfg.Chat.MaxLength,
	})

	// --- periodic jobs ---
	var wg sync.WaitGroup
	runJob := func(every time.Duration, job jobs.Job) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			jobs.Run(ctx, clock, every, job)
		}()
	}
	runJob(cfg.Clock.TickInterval, jobs.NewTicker(rooms, cfg.Clock.TickStep, hub))
	runJob(cfg.Reaper.Interval, jobs.NewReaper(rooms, clock, cfg.Reaper.IdleTimeout, pruner, hub))

	// --- HTTP ---
	wsServer := ws.NewServer(hub, roomSvc, chatSvc)
	router := httpx.NewRouter(httpx.NewHandler(roomSvc, chatSvc), wsServer, httpx.RouterConfig{
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		StaticDir:      cfg.HTTP.StaticDir,
	})
	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 2)

	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- gRPC (health/reflection), опционально ---
	var grpcSrv *grpcx.Server
	if cfg.GRPC.Addr != "" {
		grpcSrv = grpcx.NewServer(logger.L())
		go func() {
			lis, err := net.Listen("tcp", cfg.GRPC.Addr)
			if err != nil {
				errCh <- err
				return
			}
			slog.Info("grpc listen", "addr", cfg.GRPC.Addr)
			if err := grpcSrv.GRPC.Serve(lis); err != nil {
				errCh <- err
			}
		}()
	}

	// --- graceful shutdown ---
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal")
	case err := <-errCh:
		slog.Error("server error", logger.Err(err))
		stop()
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	if err := httpSrv.Shutdown(ctxShutdown); err != nil {
		slog.Warn("http shutdown", logger.Err(err))
	}
	wg.Wait()
	slog.Info("stopped", "rooms", rooms.Len())
}
