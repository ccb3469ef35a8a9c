package llm

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestEchoProvider_Complete(t *testing.T) {
	p := NewEchoProvider()

	out, err := p.Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "persona"},
		{Role: RoleUser, Content: "first"},
		{Role: RoleAssistant, Content: "reply"},
		{Role: RoleUser, Content: "second"},
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if out != "second" {
		t.Errorf("expected last user message, got %q", out)
	}
}

func TestEchoProvider_CompleteSystemOnly(t *testing.T) {
	p := NewEchoProvider()

	out, err := p.Complete(context.Background(), []Message{{Role: RoleSystem, Content: "persona"}})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if out != "persona" {
		t.Errorf("expected system prompt echo, got %q", out)
	}
}

func TestEchoProvider_CancelledContext(t *testing.T) {
	p := NewEchoProvider()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Stream(ctx, []Message{{Role: RoleUser, Content: "hi"}}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestEchoProvider_StreamChunks(t *testing.T) {
	p := &EchoProvider{ChunkSize: 3}

	ch, err := p.Stream(context.Background(), []Message{{Role: RoleUser, Content: "héllo wörld"}})
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	chunks, err := collectEvents(t, ch)
	if err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}
	if len(chunks) < 2 {
		t.Errorf("expected several chunks, got %q", chunks)
	}
	if got := strings.Join(chunks, ""); got != "héllo wörld" {
		t.Errorf("chunks do not reassemble: %q", got)
	}
	for _, c := range chunks {
		if !utf8.ValidString(c) {
			t.Errorf("chunk %q splits a rune", c)
		}
	}
}

func TestFlattenPrompt(t *testing.T) {
	got, err := flattenPrompt([]Message{
		{Role: RoleSystem, Content: "You translate."},
		{Role: RoleUser, Content: "old"},
		{Role: RoleAssistant, Content: "reply"},
		{Role: RoleUser, Content: "bonjour"},
	})
	if err != nil {
		t.Fatalf("flattenPrompt failed: %v", err)
	}
	if got != "You translate.\n\nbonjour" {
		t.Errorf("unexpected prompt %q", got)
	}

	if _, err := flattenPrompt(nil); err == nil {
		t.Error("expected error for empty conversation")
	}
}
