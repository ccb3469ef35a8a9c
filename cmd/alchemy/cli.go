package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"

	"github.com/shanemcd/alchemy/pkg/llm"
	"github.com/shanemcd/alchemy/pkg/textgen"
	"github.com/shanemcd/alchemy/pkg/tools"
)

// ConfigVersion is the current config file version.
const ConfigVersion = "v1"

// CLI is the root command structure for alchemy.
// It serves as the single source of truth for CLI flags, env vars, and config files.
type CLI struct {
	// Global flags (shared across all subcommands)
	Config    string `short:"c" help:"Path to config file" type:"path" yaml:"-"`
	LogLevel  string `help:"Log level (debug, info, warn, error)" default:"info" env:"ALCHEMY_LOG_LEVEL" yaml:"logLevel"`
	LogFormat string `help:"Log format (text, json)" default:"text" enum:"text,json" env:"ALCHEMY_LOG_FORMAT" yaml:"logFormat"`

	// Embedded config (populated from file + CLI + env)
	Version string       `yaml:"version" kong:"-"`
	LLM     LLMConfig    `embed:"" prefix:"llm-" yaml:"llm"`
	MCP     MCPConfig    `embed:"" prefix:"mcp-" yaml:"mcp"`
	Retry   RetryConfig  `embed:"" prefix:"retry-" yaml:"retry"`
	Server  ServerConfig `embed:"" prefix:"server-" yaml:"server"`
	Agent   AgentConfig  `embed:"" prefix:"agent-" yaml:"agent"`
	Peers   []PeerConfig `yaml:"peers" kong:"-"`

	// Subcommands
	Chat      ChatCmd      `cmd:"" help:"Interactive chat"`
	Summarize SummarizeCmd `cmd:"" help:"Summarize text"`
	Translate TranslateCmd `cmd:"" help:"Translate text"`
	Proofread ProofreadCmd `cmd:"" help:"Correct spelling, grammar and punctuation"`
	Repurpose RepurposeCmd `cmd:"" help:"Rewrite content as a social media post"`
	ASCII     ASCIICmd     `cmd:"" name:"ascii" help:"Draw an object as ASCII art"`
	IELTS     IELTSCmd     `cmd:"" name:"ielts" help:"Score an IELTS essay"`
	Resume    ResumeCmd    `cmd:"" help:"Match a resume against a job description"`
	Serve     ServeCmd     `cmd:"" help:"Serve the tools as A2A skills over gRPC"`
	Status    StatusCmd    `cmd:"" help:"Check whether a server is serving"`
	Discover  DiscoverCmd  `cmd:"" help:"Discover a server's skills (AgentCard)"`
	Prompt    PromptCmd    `cmd:"" help:"Send a prompt to a server"`
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Provider string        `help:"LLM provider (echo, openai, ollama, mcphost)" default:"echo" enum:"echo,openai,ollama,mcphost" env:"ALCHEMY_LLM_PROVIDER" yaml:"provider"`
	Model    string        `help:"LLM model name (mcphost: provider:model)" env:"ALCHEMY_LLM_MODEL" yaml:"model"`
	URL      string        `help:"LLM API URL (provider default when empty)" env:"ALCHEMY_LLM_URL" yaml:"url"`
	APIKey   string        `help:"API key for the openai provider" env:"ALCHEMY_LLM_API_KEY,OPENAI_API_KEY" yaml:"apiKey"`
	Timeout  time.Duration `help:"Request timeout (0 for none)" default:"2m" env:"ALCHEMY_LLM_TIMEOUT" yaml:"timeout"`
}

// MCPConfig holds mcphost provider configuration.
type MCPConfig struct {
	ConfigFile string                         `help:"mcphost config file (overrides servers from the alchemy config)" type:"path" env:"ALCHEMY_MCP_CONFIG_FILE" yaml:"configFile"`
	MaxSteps   int                            `help:"Maximum tool calls per prompt (0 for unlimited)" default:"0" env:"ALCHEMY_MCP_MAX_STEPS" yaml:"maxSteps"`
	Servers    map[string]llm.MCPServerConfig `yaml:"servers" kong:"-"`
}

// RetryConfig controls retries of structured tools.
type RetryConfig struct {
	Attempts   int           `help:"Attempts for structured answers" default:"3" env:"ALCHEMY_RETRY_ATTEMPTS" yaml:"attempts"`
	Backoff    time.Duration `help:"Initial delay between attempts" default:"200ms" env:"ALCHEMY_RETRY_BACKOFF" yaml:"backoff"`
	MaxBackoff time.Duration `help:"Maximum delay between attempts" default:"2s" env:"ALCHEMY_RETRY_MAX_BACKOFF" yaml:"maxBackoff"`
}

// ServerConfig holds server-mode configuration.
type ServerConfig struct {
	Addr string `help:"Address to listen on" default:"[::]:50051" env:"ALCHEMY_ADDR" yaml:"addr"`
}

// AgentConfig holds A2A agent card configuration.
type AgentConfig struct {
	Name        string `help:"Agent name" default:"alchemy" env:"ALCHEMY_AGENT_NAME" yaml:"name"`
	Description string `help:"Agent description" env:"ALCHEMY_AGENT_DESCRIPTION" yaml:"description"`
	Streaming   bool   `help:"Enable streaming" default:"true" negatable:"" env:"ALCHEMY_AGENT_STREAMING" yaml:"streaming"`
}

// PeerConfig names a known server.
type PeerConfig struct {
	Name string `yaml:"name"`
	Addr string `yaml:"addr"`
}

// LoadConfigFile loads configuration from a YAML file into the CLI struct
// and returns the file's values keyed by path for configResolver.
// If the path is empty, this is a no-op.
func LoadConfigFile(path string, cli *CLI) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cli); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	values := map[string]any{}
	flatten("", raw, values)
	return values, nil
}

// flatten collects scalar and list values under normalized keys, so that
// llm.apiKey becomes "llmapikey".
func flatten(prefix string, in map[string]any, out map[string]any) {
	for k, v := range in {
		key := prefix + normalizeKey(k)
		if nested, ok := v.(map[string]any); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = v
	}
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.NewReplacer("-", "", "_", "").Replace(s))
}

// configResolver supplies flag values from a loaded config file. kong
// resets flags before the second parse, so file values are re-applied
// here. Precedence is flag, then env, then file, then default.
func configResolver(values map[string]any) kong.Resolver {
	return kong.ResolverFunc(func(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
		for _, env := range flag.Tag.Envs {
			if _, ok := os.LookupEnv(env); ok {
				return nil, nil
			}
		}
		v, ok := values[normalizeKey(flag.Name)]
		if !ok || v == nil {
			return nil, nil
		}
		if list, ok := v.([]any); ok {
			parts := make([]string, len(list))
			for i, item := range list {
				parts[i] = fmt.Sprint(item)
			}
			return strings.Join(parts, ","), nil
		}
		return fmt.Sprint(v), nil
	})
}

// ValidateConfigVersion checks that the config file version is supported.
func ValidateConfigVersion(version string) error {
	if version == "" {
		return fmt.Errorf("config file missing 'version' field (expected: %s)", ConfigVersion)
	}

	switch version {
	case "v1":
		return nil
	default:
		return fmt.Errorf("unsupported config version %q (supported: %s)", version, ConfigVersion)
	}
}

// ResolvePeer returns the address for a peer (by name or direct address).
func (cli *CLI) ResolvePeer(nameOrAddr string) string {
	for _, p := range cli.Peers {
		if p.Name == nameOrAddr {
			return p.Addr
		}
	}
	return nameOrAddr
}

// CreateLLMProvider creates the configured LLM provider. Providers that
// hold resources implement io.Closer.
func (cli *CLI) CreateLLMProvider(ctx context.Context) (llm.Provider, error) {
	switch cli.LLM.Provider {
	case "openai":
		model := cli.LLM.Model
		if model == "" {
			model = "gpt-4"
		}
		return llm.NewOpenAIProvider(llm.OpenAIConfig{
			BaseURL: cli.LLM.URL,
			APIKey:  cli.LLM.APIKey,
			Model:   model,
			Timeout: cli.LLM.Timeout,
		}), nil
	case "ollama":
		if cli.LLM.Model == "" {
			return nil, fmt.Errorf("--llm-model is required when using ollama provider")
		}
		p, err := llm.NewOllamaProvider(llm.OllamaConfig{
			BaseURL: cli.LLM.URL,
			Model:   cli.LLM.Model,
			Timeout: cli.LLM.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	case "mcphost":
		if cli.LLM.Model == "" {
			return nil, fmt.Errorf("--llm-model is required when using mcphost provider (e.g. ollama:llama3.2)")
		}
		p, err := llm.NewMCPHostProvider(ctx, llm.MCPHostOptions{
			Model:         cli.LLM.Model,
			MCPConfigFile: cli.MCP.ConfigFile,
			MCPServers:    cli.MCP.Servers,
			MaxSteps:      cli.MCP.MaxSteps,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	case "echo":
		return llm.NewEchoProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cli.LLM.Provider)
	}
}

// Toolkit builds the tools on top of the configured provider. The returned
// func releases the provider.
func (cli *CLI) Toolkit(ctx context.Context, opts ...textgen.Option) (*tools.Toolkit, func(), error) {
	provider, err := cli.CreateLLMProvider(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("create LLM provider: %w", err)
	}
	slog.Debug("llm provider ready", "provider", provider.Name(), "model", cli.LLM.Model)

	release := func() {
		if c, ok := provider.(io.Closer); ok {
			if err := c.Close(); err != nil {
				slog.Warn("close provider", "err", err)
			}
		}
	}

	client := textgen.New(provider, opts...)
	tk := tools.New(client,
		tools.WithAttempts(cli.Retry.Attempts),
		tools.WithRetryBackoff(cli.Retry.Backoff, cli.Retry.MaxBackoff),
	)
	return tk, release, nil
}
