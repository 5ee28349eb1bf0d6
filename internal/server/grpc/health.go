package grpc

import (
	"context"

	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the health service name reported for the waitlist backend.
// The empty name asks about the server as a whole and is answered the same way.
const ServiceName = "waitlist"

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer answers Check by pinging the store. Watch and List are left
// unimplemented.
type HealthServer struct {
	healthpb.UnimplementedHealthServer
	store Pinger
}

func NewHealthServer(store Pinger) *HealthServer {
	return &HealthServer{store: store}
}

func (h *HealthServer) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	switch req.GetService() {
	case "", ServiceName:
	default:
		return nil, status.Errorf(codes.NotFound, "unknown service %q", req.GetService())
	}

	if err := h.store.Ping(ctx); err != nil {
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}
