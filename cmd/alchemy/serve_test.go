package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/shanemcd/alchemy/pkg/control"
	"github.com/shanemcd/alchemy/pkg/llm"
	"github.com/shanemcd/alchemy/pkg/textgen"
	"github.com/shanemcd/alchemy/pkg/tools"
)

func startTestServer(t *testing.T, streaming bool) (*server, string) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cli := &CLI{
		LLM:   LLMConfig{Provider: "echo"},
		Agent: AgentConfig{Name: "scribe", Streaming: streaming},
	}
	srv := newServer(serverConfig{
		toolkit:   tools.New(textgen.New(&llm.EchoProvider{ChunkSize: 4}, textgen.WithLogger(logger)), tools.WithLogger(logger)),
		state:     control.NewState("scribe"),
		agentCard: cli.AgentCard(listener.Addr().String()),
		streaming: streaming,
	})
	go srv.grpc.Serve(listener)
	srv.state.SetReady()

	t.Cleanup(func() {
		listener.Close()
		srv.grpc.Stop()
	})
	return srv, listener.Addr().String()
}

func connect(t *testing.T, addr string) *PeerConnection {
	t.Helper()
	conn, err := ConnectToPeer(addr)
	if err != nil {
		t.Fatalf("ConnectToPeer: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestServeStatus(t *testing.T) {
	_, addr := startTestServer(t, false)
	conn := connect(t, addr)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var buf bytes.Buffer
	if err := doStatus(ctx, &buf, conn.Health()); err != nil {
		t.Fatalf("doStatus: %v", err)
	}
	if !strings.Contains(buf.String(), "SERVING") {
		t.Errorf("unexpected status output %q", buf.String())
	}
}

func TestServeStatus_Draining(t *testing.T) {
	srv, addr := startTestServer(t, false)
	conn := connect(t, addr)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	srv.state.SetDraining()
	if err := doStatus(ctx, io.Discard, conn.Health()); err == nil {
		t.Fatal("expected error for draining server")
	}
}

func TestServeDiscover(t *testing.T) {
	_, addr := startTestServer(t, true)
	conn := connect(t, addr)
	transport := conn.A2ATransport()
	defer transport.Destroy()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var buf bytes.Buffer
	if err := doDiscover(ctx, &buf, transport); err != nil {
		t.Fatalf("doDiscover: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Agent: scribe", "Streaming: true", "summarize:", "resume:"} {
		if !strings.Contains(out, want) {
			t.Errorf("discover output missing %q:\n%s", want, out)
		}
	}
}

func TestServePrompt(t *testing.T) {
	for _, streaming := range []bool{false, true} {
		_, addr := startTestServer(t, streaming)
		conn := connect(t, addr)
		transport := conn.A2ATransport()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		var buf bytes.Buffer
		msg := newPromptMessage("hello over the wire", "chat", nil)
		var err error
		if streaming {
			err = doStreamingPrompt(ctx, &buf, transport, msg)
		} else {
			err = doPrompt(ctx, &buf, transport, msg)
		}
		cancel()
		transport.Destroy()

		if err != nil {
			t.Fatalf("streaming=%v: prompt failed: %v", streaming, err)
		}
		if got := strings.TrimSpace(buf.String()); got != "hello over the wire" {
			t.Errorf("streaming=%v: got %q", streaming, got)
		}
	}
}

func TestServePrompt_UnknownSkill(t *testing.T) {
	_, addr := startTestServer(t, false)
	conn := connect(t, addr)
	transport := conn.A2ATransport()
	defer transport.Destroy()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := doPrompt(ctx, io.Discard, transport, newPromptMessage("x", "paint", nil))
	if err == nil || !strings.Contains(err.Error(), "unknown skill") {
		t.Fatalf("expected unknown skill failure, got %v", err)
	}
}

func TestServerShutdown(t *testing.T) {
	srv, _ := startTestServer(t, false)

	done := make(chan struct{})
	go func() {
		srv.shutdown(5 * time.Second)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown hung")
	}
	if srv.state.Phase() != control.Stopped {
		t.Errorf("expected stopped phase, got %v", srv.state.Phase())
	}
}
