package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ollama/ollama/api"
)

// mockOllama returns an httptest server that answers /api/chat with the
// given content pieces as NDJSON.
func mockOllama(t *testing.T, pieces []string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", func(w http.ResponseWriter, r *http.Request) {
		var req api.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/x-ndjson")
		enc := json.NewEncoder(w)

		if req.Stream != nil && !*req.Stream {
			enc.Encode(api.ChatResponse{ //nolint:errcheck
				Model:   req.Model,
				Message: api.Message{Role: RoleAssistant, Content: strings.Join(pieces, "")},
				Done:    true,
			})
			return
		}

		for _, piece := range pieces {
			enc.Encode(api.ChatResponse{ //nolint:errcheck
				Model:   req.Model,
				Message: api.Message{Role: RoleAssistant, Content: piece},
			})
		}
		enc.Encode(api.ChatResponse{Model: req.Model, Done: true}) //nolint:errcheck
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewOllamaProvider_InvalidURL(t *testing.T) {
	if _, err := NewOllamaProvider(OllamaConfig{BaseURL: "://bad"}); err == nil {
		t.Fatal("expected error for invalid URL")
	}
}

func TestOllamaProvider_Complete(t *testing.T) {
	srv := mockOllama(t, []string{"The answer ", "is 4."})

	p, err := NewOllamaProvider(OllamaConfig{BaseURL: srv.URL, Model: "llama3.2"})
	if err != nil {
		t.Fatalf("NewOllamaProvider failed: %v", err)
	}

	out, err := p.Complete(context.Background(), []Message{{Role: RoleUser, Content: "2+2?"}})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if out != "The answer is 4." {
		t.Errorf("expected %q, got %q", "The answer is 4.", out)
	}
}

func TestOllamaProvider_Stream(t *testing.T) {
	srv := mockOllama(t, []string{"Hel", "", "lo"})

	// The OpenAI-style /v1 suffix is tolerated.
	p, err := NewOllamaProvider(OllamaConfig{BaseURL: srv.URL + "/v1", Model: "llama3.2"})
	if err != nil {
		t.Fatalf("NewOllamaProvider failed: %v", err)
	}

	ch, err := p.Stream(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	chunks, err := collectEvents(t, ch)
	if err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}
	if strings.Join(chunks, "|") != "Hel|lo" {
		t.Errorf("expected [Hel lo], got %q", chunks)
	}
}

func TestOllamaProvider_StreamServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model 'missing' not found"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	p, err := NewOllamaProvider(OllamaConfig{BaseURL: srv.URL, Model: "missing"})
	if err != nil {
		t.Fatalf("NewOllamaProvider failed: %v", err)
	}

	ch, err := p.Stream(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	if _, err := collectEvents(t, ch); err == nil {
		t.Fatal("expected error event for 404 response")
	}
}

func TestOllamaProvider_WithModel(t *testing.T) {
	p, err := NewOllamaProvider(OllamaConfig{Model: "a"})
	if err != nil {
		t.Fatalf("NewOllamaProvider failed: %v", err)
	}

	q := p.WithModel("b").(*OllamaProvider)
	if q.model != "b" || p.model != "a" {
		t.Errorf("expected copy with model b and original a, got %q and %q", q.model, p.model)
	}
	if q.Name() != "ollama" {
		t.Errorf("expected name ollama, got %q", q.Name())
	}
}
