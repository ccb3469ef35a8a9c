package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mark3labs/mcphost/sdk"
	"gopkg.in/yaml.v3"
)

// MCPServerConfig represents configuration for an MCP server.
// Mirrors the mcphost config format for compatibility.
type MCPServerConfig struct {
	Type        string            `yaml:"type"`                  // "local", "remote", "builtin"
	Command     []string          `yaml:"command,omitempty"`     // for local
	Environment map[string]string `yaml:"environment,omitempty"` // for local
	URL         string            `yaml:"url,omitempty"`         // for remote
	Headers     []string          `yaml:"headers,omitempty"`     // for remote
	Name        string            `yaml:"name,omitempty"`        // for builtin
	Options     map[string]any    `yaml:"options,omitempty"`     // for builtin
}

// MCPHostOptions configures the MCPHostProvider.
type MCPHostOptions struct {
	// Model is the model string in "provider:model" format (e.g., "ollama:llama3.2")
	Model string

	// MCPConfigFile is the path to an external mcphost config file.
	// If set, this takes precedence over MCPServers.
	MCPConfigFile string

	// MCPServers maps server names to their configurations.
	// Only used if MCPConfigFile is not set.
	MCPServers map[string]MCPServerConfig

	// MaxSteps limits the number of tool calls (0 for unlimited)
	MaxSteps int
}

// mcpHostConfig is the config file format expected by mcphost SDK
type mcpHostConfig struct {
	MCPServers map[string]MCPServerConfig `yaml:"mcpServers"`
}

// MCPHostProvider implements Provider using the mcphost SDK, so generation
// can call MCP tools before answering. The host keeps a single session, so
// calls are serialized.
type MCPHostProvider struct {
	host       *sdk.MCPHost
	model      string
	configFile string // temp config file to clean up
	mu         sync.Mutex
}

// NewMCPHostProvider creates a new MCPHostProvider.
// System prompts are passed per call, not at construction.
func NewMCPHostProvider(ctx context.Context, opts MCPHostOptions) (*MCPHostProvider, error) {
	if opts.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	configFile := opts.MCPConfigFile
	var tempFile string

	if configFile == "" {
		var err error
		tempFile, err = writeTempConfig(opts.MCPServers)
		if err != nil {
			return nil, fmt.Errorf("write temp config: %w", err)
		}
		configFile = tempFile
	}
	slog.Debug("creating mcphost provider",
		"model", opts.Model,
		"config_file", configFile,
		"server_count", len(opts.MCPServers),
	)

	host, err := sdk.New(ctx, &sdk.Options{
		Model:      opts.Model,
		ConfigFile: configFile,
		MaxSteps:   opts.MaxSteps,
		Streaming:  true,
		Quiet:      true,
	})
	if err != nil {
		if tempFile != "" {
			os.Remove(tempFile)
		}
		return nil, fmt.Errorf("create mcphost: %w", err)
	}

	return &MCPHostProvider{
		host:       host,
		model:      opts.Model,
		configFile: tempFile,
	}, nil
}

// writeTempConfig writes MCP server configuration to a temporary YAML file.
func writeTempConfig(servers map[string]MCPServerConfig) (string, error) {
	data, err := yaml.Marshal(mcpHostConfig{MCPServers: servers})
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}

	f, err := os.CreateTemp("", "alchemy-mcphost-*.yaml")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write config: %w", err)
	}

	return f.Name(), nil
}

// Complete generates a response for the given messages (non-streaming).
func (p *MCPHostProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	prompt, err := flattenPrompt(messages)
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.host.ClearSession()

	slog.Debug("mcphost complete", "prompt_length", len(prompt))

	response, err := p.host.Prompt(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("mcphost prompt: %w", err)
	}
	return response, nil
}

// Stream generates a streaming response using mcphost's chunk callback.
func (p *MCPHostProvider) Stream(ctx context.Context, messages []Message) (<-chan StreamEvent, error) {
	prompt, err := flattenPrompt(messages)
	if err != nil {
		return nil, err
	}

	ch := make(chan StreamEvent, 16)

	go func() {
		defer close(ch)

		p.mu.Lock()
		defer p.mu.Unlock()

		p.host.ClearSession()

		var streamed bool
		response, err := p.host.PromptWithCallbacks(ctx, prompt,
			func(name, args string) {
				slog.Debug("mcphost tool call", "tool", name)
			},
			func(name, args, result string, isError bool) {
				slog.Debug("mcphost tool result", "tool", name, "is_error", isError)
			},
			func(chunk string) {
				if chunk != "" && send(ctx, ch, StreamEvent{Content: chunk}) {
					streamed = true
				}
			},
		)
		if err != nil {
			send(ctx, ch, StreamEvent{Error: fmt.Errorf("mcphost prompt: %w", err), Done: true})
			return
		}

		// Some backends answer without emitting chunks.
		if !streamed && response != "" {
			if !send(ctx, ch, StreamEvent{Content: response}) {
				return
			}
		}
		send(ctx, ch, StreamEvent{Done: true})
	}()

	return ch, nil
}

// Name returns the provider identifier.
func (p *MCPHostProvider) Name() string {
	return "mcphost"
}

// Close cleans up resources including the temporary config file.
func (p *MCPHostProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error

	if p.host != nil {
		if err := p.host.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close mcphost: %w", err))
		}
	}

	if p.configFile != "" {
		if err := os.Remove(p.configFile); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("remove temp config: %w", err))
		}
	}

	return errors.Join(errs...)
}

// flattenPrompt turns a conversation into the single prompt mcphost accepts.
// A system message and the last user message are kept; earlier turns are
// dropped because the host session is cleared per call.
func flattenPrompt(messages []Message) (string, error) {
	var parts []string
	if len(messages) > 0 && messages[0].Role == RoleSystem && messages[0].Content != "" {
		parts = append(parts, messages[0].Content)
	}
	if user := lastUserMessage(messages); user != "" {
		parts = append(parts, user)
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no prompt content found")
	}
	return strings.Join(parts, "\n\n"), nil
}

var _ Provider = (*MCPHostProvider)(nil)
