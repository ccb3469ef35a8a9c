package control

import (
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// A2AService is the gRPC service name reported alongside the overall
// server health.
const A2AService = "a2a.v1.A2AService"

// Server publishes a State through grpc.health.v1.Health.
type Server struct {
	state  *State
	health *health.Server
}

// NewServer creates a health server that follows state.
func NewServer(state *State) *Server {
	s := &Server{
		state:  state,
		health: health.NewServer(),
	}
	s.update(state.Phase())
	state.Watch(s.update)
	return s
}

// RegisterWith registers the health service with a gRPC server.
func (s *Server) RegisterWith(server *grpc.Server) {
	healthpb.RegisterHealthServer(server, s.health)
}

// Shutdown marks every service as not serving permanently.
func (s *Server) Shutdown() {
	s.health.Shutdown()
}

func (s *Server) update(p Phase) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if p.Serving() {
		status = healthpb.HealthCheckResponse_SERVING
	}
	slog.Debug("health changed", "phase", p.String(), "status", status.String(), "active_tasks", s.state.ActiveTasks())

	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(A2AService, status)
}
