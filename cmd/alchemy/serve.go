package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/a2aproject/a2a-go/a2a"
	"google.golang.org/grpc"

	"github.com/shanemcd/alchemy/pkg/a2aexec"
	"github.com/shanemcd/alchemy/pkg/control"
	"github.com/shanemcd/alchemy/pkg/tools"
)

// ServeCmd serves the tools as A2A skills over gRPC.
type ServeCmd struct {
	ShutdownTimeout time.Duration `help:"Time allowed for in-flight requests on shutdown" default:"30s"`
}

// Run executes the serve command.
func (c *ServeCmd) Run(cli *CLI, ctx context.Context) error {
	tk, release, err := cli.Toolkit(ctx)
	if err != nil {
		return err
	}
	defer release()

	listener, err := net.Listen("tcp", cli.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	state := control.NewState(cli.Agent.Name)
	state.SetMetadata("provider", cli.LLM.Provider)
	if cli.LLM.Model != "" {
		state.SetMetadata("model", cli.LLM.Model)
	}

	srv := newServer(serverConfig{
		toolkit:   tk,
		state:     state,
		agentCard: cli.AgentCard(listener.Addr().String()),
		streaming: cli.Agent.Streaming,
	})

	errc := make(chan error, 1)
	go func() { errc <- srv.grpc.Serve(listener) }()

	state.SetReady()
	slog.Info("alchemy serving", "addr", listener.Addr(), "provider", cli.LLM.Provider, "streaming", cli.Agent.Streaming)

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("received shutdown signal")
	}

	srv.shutdown(c.ShutdownTimeout)
	slog.Info("alchemy stopped")
	return nil
}

// AgentCard describes this server's skills.
func (cli *CLI) AgentCard(addr string) *a2a.AgentCard {
	description := cli.Agent.Description
	if description == "" {
		description = "Text generation tools backed by " + cli.LLM.Provider
	}
	return a2aexec.AgentCard(cli.Agent.Name, description, addr, tools.Skills(), cli.Agent.Streaming)
}

// server bundles the gRPC server with its lifecycle state.
type server struct {
	grpc   *grpc.Server
	state  *control.State
	health *control.Server
}

type serverConfig struct {
	toolkit   *tools.Toolkit
	state     *control.State
	agentCard *a2a.AgentCard
	streaming bool
}

func newServer(cfg serverConfig) *server {
	s := &server{
		grpc:   grpc.NewServer(),
		state:  cfg.state,
		health: control.NewServer(cfg.state),
	}
	s.health.RegisterWith(s.grpc)

	executor := a2aexec.NewExecutor(cfg.toolkit)
	executor.Streaming = cfg.streaming
	executor.State = cfg.state

	a2aexec.RegisterWithGRPC(s.grpc, &a2aexec.ServerConfig{
		Executor:  executor,
		AgentCard: cfg.agentCard,
	})
	return s
}

// shutdown drains in-flight calls, forcing a stop after timeout.
func (s *server) shutdown(timeout time.Duration) {
	slog.Info("draining", "active_tasks", s.state.ActiveTasks(), "timeout", timeout)
	s.state.SetDraining()

	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		slog.Warn("graceful shutdown timeout exceeded, forcing stop")
		s.grpc.Stop()
	}

	s.state.SetStopped()
	s.health.Shutdown()
}
