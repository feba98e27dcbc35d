package grpcx

import (
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName — имя, под которым сервис виден в grpc.health.v1.
const ServiceName = "watchparty"

// Server — служебный gRPC: health и reflection. Доменных RPC нет,
// комнаты живут на HTTP.
type Server struct {
	GRPC   *grpc.Server
	health *health.Server
}

func NewServer(log *slog.Logger) *Server {
	gs := grpc.NewServer(
		grpc.ChainUnaryInterceptor(UnaryServerInterceptor(log)),
		grpc.ChainStreamInterceptor(StreamServerInterceptor(log)),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)

	s := &Server{GRPC: gs, health: hs}
	s.SetServing(true)
	return s
}

// SetServing переключает статус и для пустого имени (весь сервер), и для ServiceName.
func (s *Server) SetServing(up bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if up {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// GracefulStop сначала снимает SERVING, затем дожидается активных вызовов.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.GRPC.GracefulStop()
}
