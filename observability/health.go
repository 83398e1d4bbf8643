package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the gRPC health service name reported alongside the overall status.
const ServiceName = "dm-relay"

// HealthServer serves grpc.health.v1 for orchestrator health checks. It runs as a supervised worker.
type HealthServer struct {
	log     *slog.Logger
	address string
}

func NewHealthServer(log *slog.Logger, host string, port int) *HealthServer {
	return &HealthServer{log: log, address: fmt.Sprintf("%s:%d", host, port)}
}

func (h *HealthServer) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", h.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", h.address, err)
	}

	server := grpc.NewServer()
	status := health.NewServer()
	healthpb.RegisterHealthServer(server, status)
	status.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	status.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	go func() {
		<-ctx.Done()
		status.Shutdown()
		server.GracefulStop()
	}()

	h.log.Info("Starting gRPC health server", "address", h.address)
	if err = server.Serve(listener); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("gRPC health server error: %w", err)
	}
	return nil
}
