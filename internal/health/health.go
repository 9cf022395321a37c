// Package health exposes the standard gRPC health service for the logic
// host.  The attendance service reports SERVING only while the relay
// session is up.
package health

import (
	"io"
	"log"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health-check service key for the attendance host.
const ServiceName = "rfid.attendance.v1.Host"

type Server struct {
	grpc   *grpc.Server
	health *health.Server
	logger *log.Logger
}

// New returns a Server that starts NOT_SERVING for ServiceName.  The
// overall ("") status is SERVING as soon as the process is listening.
func New(logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	return &Server{grpc: gs, health: hs, logger: logger}
}

// SetServing flips ServiceName between SERVING and NOT_SERVING.
func (s *Server) SetServing(up bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if up {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(ServiceName, st)
	s.logger.Printf("health: %s %s", ServiceName, st)
}

func (s *Server) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// Stop marks everything NOT_SERVING so watchers see the shutdown, then
// drains in-flight RPCs.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
