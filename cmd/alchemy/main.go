// alchemy runs the text generation tools from the terminal or serves them
// as A2A skills.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

func main() {
	cli := CLI{}

	// First pass: parse to get --config path
	parser, err := kong.New(&cli,
		kong.Name("alchemy"),
		kong.Description("Text generation tools backed by a pluggable LLM provider"),
	)
	if err != nil {
		log.Fatalf("failed to create parser: %v", err)
	}

	// First pass ignores errors (we just need the config path)
	_, _ = parser.Parse(os.Args[1:])

	// Load config file (if provided)
	values, err := LoadConfigFile(cli.Config, &cli)
	if err != nil {
		log.Fatalf("failed to load config file: %v", err)
	}

	// Validate version if config was loaded
	if cli.Config != "" {
		if err := ValidateConfigVersion(cli.Version); err != nil {
			log.Fatalf("config error: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Second pass: CLI/env override file values, run subcommand
	kctx := kong.Parse(&cli,
		kong.Name("alchemy"),
		kong.Description("Text generation tools backed by a pluggable LLM provider"),
		kong.UsageOnError(),
		kong.Resolvers(configResolver(values)),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	setupLogger(cli.LogLevel, cli.LogFormat)

	// Run the selected command
	err = kctx.Run(&cli)
	kctx.FatalIfErrorf(err)
}
