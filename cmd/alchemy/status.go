package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/shanemcd/alchemy/pkg/control"
)

// StatusCmd checks whether a server is accepting requests.
type StatusCmd struct {
	Peer string `arg:"" help:"Server address or peer name"`
}

// Run executes the status command.
func (c *StatusCmd) Run(cli *CLI, ctx context.Context) error {
	addr := cli.ResolvePeer(c.Peer)
	slog.Debug("checking status", "addr", addr)

	conn, err := ConnectToPeer(addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	return doStatus(ctx, os.Stdout, conn.Health())
}

func doStatus(ctx context.Context, w io.Writer, client healthpb.HealthClient) error {
	start := time.Now()
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: control.A2AService})
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	fmt.Fprintf(w, "Status: %s (rtt=%v)\n", resp.Status, time.Since(start))
	if resp.Status != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("server is %s", resp.Status)
	}
	return nil
}
