package control

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func startHealth(t *testing.T, state *State) (healthpb.HealthClient, *Server) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	server := grpc.NewServer()
	hs := NewServer(state)
	hs.RegisterWith(server)
	go server.Serve(listener)
	t.Cleanup(func() {
		listener.Close()
		server.Stop()
	})

	conn, err := grpc.NewClient(listener.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return healthpb.NewHealthClient(conn), hs
}

func check(t *testing.T, client healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("Check(%q): %v", service, err)
	}
	return resp.Status
}

func TestHealthFollowsState(t *testing.T) {
	state := NewState("test")
	client, _ := startHealth(t, state)

	if got := check(t, client, ""); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("starting: expected NOT_SERVING, got %v", got)
	}

	state.SetReady()
	if got := check(t, client, A2AService); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("ready: expected SERVING, got %v", got)
	}

	state.TaskStarted()
	if got := check(t, client, ""); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("busy: expected SERVING, got %v", got)
	}
	state.TaskDone()

	state.SetDraining()
	if got := check(t, client, ""); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("draining: expected NOT_SERVING, got %v", got)
	}
}

func TestHealthShutdown(t *testing.T) {
	state := NewState("test")
	client, hs := startHealth(t, state)

	state.SetReady()
	hs.Shutdown()

	if got := check(t, client, A2AService); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("expected NOT_SERVING after shutdown, got %v", got)
	}

	// Later transitions are ignored once shut down.
	state.TaskStarted()
	if got := check(t, client, ""); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("expected NOT_SERVING to stick, got %v", got)
	}
}
