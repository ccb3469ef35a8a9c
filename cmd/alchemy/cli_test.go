package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/go-cmp/cmp"

	"github.com/shanemcd/alchemy/pkg/llm"
	"github.com/shanemcd/alchemy/pkg/textgen"
)

const testConfig = `version: v1
logLevel: debug
llm:
  provider: ollama
  model: llama3.2
  timeout: 45s
retry:
  attempts: 5
agent:
  name: scribe
  streaming: false
peers:
  - name: lab
    addr: 10.0.0.5:50051
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "alchemy.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// parseWithConfig mirrors main: load the file, then parse args on top of it.
func parseWithConfig(t *testing.T, path string, args ...string) *CLI {
	t.Helper()
	cli := &CLI{}
	values, err := LoadConfigFile(path, cli)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}

	parser, err := kong.New(cli, kong.Name("alchemy"), kong.Resolvers(configResolver(values)))
	if err != nil {
		t.Fatalf("kong.New: %v", err)
	}
	if _, err := parser.Parse(args); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return cli
}

func TestLoadConfigFile_Empty(t *testing.T) {
	cli := &CLI{}
	values, err := LoadConfigFile("", cli)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if values != nil {
		t.Errorf("expected no values, got %v", values)
	}
}

func TestLoadConfigFile_Missing(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"), &CLI{})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadConfigFile_Flatten(t *testing.T) {
	cli := &CLI{}
	values, err := LoadConfigFile(writeConfig(t, testConfig), cli)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}

	for key, want := range map[string]any{
		"loglevel":       "debug",
		"llmprovider":    "ollama",
		"llmmodel":       "llama3.2",
		"retryattempts":  5,
		"agentstreaming": false,
	} {
		if diff := cmp.Diff(want, values[key]); diff != "" {
			t.Errorf("values[%q] mismatch (-want +got):\n%s", key, diff)
		}
	}

	if cli.Version != "v1" {
		t.Errorf("expected version v1, got %q", cli.Version)
	}
	if len(cli.Peers) != 1 || cli.Peers[0].Name != "lab" {
		t.Errorf("unexpected peers %+v", cli.Peers)
	}
}

func TestConfigPrecedence(t *testing.T) {
	path := writeConfig(t, testConfig)

	cli := parseWithConfig(t, path, "--llm-model", "qwen3", "discover", "lab")

	if cli.LLM.Provider != "ollama" {
		t.Errorf("expected provider from file, got %q", cli.LLM.Provider)
	}
	if cli.LLM.Model != "qwen3" {
		t.Errorf("expected flag to override file, got %q", cli.LLM.Model)
	}
	if cli.LLM.Timeout != 45*time.Second {
		t.Errorf("expected timeout from file, got %v", cli.LLM.Timeout)
	}
	if cli.Retry.Attempts != 5 {
		t.Errorf("expected attempts from file, got %d", cli.Retry.Attempts)
	}
	if cli.Retry.Backoff != 200*time.Millisecond {
		t.Errorf("expected default backoff, got %v", cli.Retry.Backoff)
	}
	if cli.Agent.Streaming {
		t.Error("expected streaming disabled by file")
	}
	if cli.LogLevel != "debug" {
		t.Errorf("expected log level from file, got %q", cli.LogLevel)
	}
	if got := cli.ResolvePeer("lab"); got != "10.0.0.5:50051" {
		t.Errorf("expected peer address, got %q", got)
	}
}

func TestConfigPrecedence_EnvOverFile(t *testing.T) {
	t.Setenv("ALCHEMY_LLM_MODEL", "mistral")
	path := writeConfig(t, testConfig)

	cli := parseWithConfig(t, path, "discover", "lab")
	if cli.LLM.Model != "mistral" {
		t.Errorf("expected env to override file, got %q", cli.LLM.Model)
	}
}

func TestDefaultsWithoutConfig(t *testing.T) {
	cli := parseWithConfig(t, "", "summarize", "some", "text")

	if cli.LLM.Provider != "echo" {
		t.Errorf("expected echo provider, got %q", cli.LLM.Provider)
	}
	if cli.Server.Addr != "[::]:50051" {
		t.Errorf("unexpected default addr %q", cli.Server.Addr)
	}
	if !cli.Agent.Streaming {
		t.Error("expected streaming enabled by default")
	}
	if diff := cmp.Diff([]string{"some", "text"}, cli.Summarize.Text); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateConfigVersion(t *testing.T) {
	tests := []struct {
		version string
		wantErr bool
	}{
		{"v1", false},
		{"", true},
		{"v2", true},
	}

	for _, tt := range tests {
		err := ValidateConfigVersion(tt.version)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateConfigVersion(%q) error = %v, wantErr %v", tt.version, err, tt.wantErr)
		}
	}
}

func TestResolvePeer_Direct(t *testing.T) {
	cli := &CLI{}
	if got := cli.ResolvePeer("127.0.0.1:50051"); got != "127.0.0.1:50051" {
		t.Errorf("expected address passthrough, got %q", got)
	}
}

func TestCreateLLMProvider(t *testing.T) {
	tests := []struct {
		name     string
		llm      LLMConfig
		wantName string
		wantErr  bool
	}{
		{name: "echo", llm: LLMConfig{Provider: "echo"}, wantName: "echo"},
		{name: "openai", llm: LLMConfig{Provider: "openai"}, wantName: "openai"},
		{name: "ollama", llm: LLMConfig{Provider: "ollama", Model: "llama3.2"}, wantName: "ollama"},
		{name: "ollama without model", llm: LLMConfig{Provider: "ollama"}, wantErr: true},
		{name: "mcphost without model", llm: LLMConfig{Provider: "mcphost"}, wantErr: true},
		{name: "unknown", llm: LLMConfig{Provider: "parrot"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli := &CLI{LLM: tt.llm}
			p, err := cli.CreateLLMProvider(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateLLMProvider() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && p.Name() != tt.wantName {
				t.Errorf("expected provider %q, got %q", tt.wantName, p.Name())
			}
		})
	}
}

func TestPrintResult(t *testing.T) {
	client := textgen.New(&llm.EchoProvider{ChunkSize: 3})

	var buf bytes.Buffer
	if err := printResult(&buf, client.Generate(context.Background(), "sys", "hello there", true)); err != nil {
		t.Fatalf("printResult: %v", err)
	}
	if buf.String() != "hello there\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestPrintResult_Failure(t *testing.T) {
	client := textgen.New(llm.NewEchoProvider())

	var buf bytes.Buffer
	err := printResult(&buf, client.Generate(context.Background(), "", "hello", true))
	if !errors.Is(err, textgen.ErrNoSystemPrompt) {
		t.Fatalf("expected ErrNoSystemPrompt, got %v", err)
	}
	if strings.Contains(buf.String(), textgen.ErrorPrefix) {
		t.Errorf("marked error text should not be printed, got %q", buf.String())
	}
}

func TestNewPromptMessage(t *testing.T) {
	msg := newPromptMessage("bonjour", "translate", map[string]string{"language": "German"})

	want := map[string]any{"skill": "translate", "language": "German"}
	if diff := cmp.Diff(want, msg.Metadata); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}
	if got := textParts(msg); got != "bonjour" {
		t.Errorf("unexpected text %q", got)
	}
}
