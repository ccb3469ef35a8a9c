package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/a2aproject/a2a-go/a2aclient"
)

// DiscoverCmd discovers a server's skills by fetching its AgentCard.
type DiscoverCmd struct {
	Peer string `arg:"" help:"Server address or peer name"`
}

// Run executes the discover command.
func (c *DiscoverCmd) Run(cli *CLI, ctx context.Context) error {
	addr := cli.ResolvePeer(c.Peer)
	slog.Debug("discovering", "addr", addr)

	conn, err := ConnectToPeer(addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	transport := conn.A2ATransport()
	defer transport.Destroy()

	return doDiscover(ctx, os.Stdout, transport)
}

func doDiscover(ctx context.Context, w io.Writer, transport a2aclient.Transport) error {
	card, err := transport.GetAgentCard(ctx)
	if err != nil {
		return fmt.Errorf("get agent card failed: %w", err)
	}

	fmt.Fprintf(w, "Agent: %s\n", card.Name)
	if card.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", card.Description)
	}
	if card.URL != "" {
		fmt.Fprintf(w, "URL: %s\n", card.URL)
	}
	fmt.Fprintf(w, "Transport: %s\n", card.PreferredTransport)
	fmt.Fprintf(w, "Streaming: %v\n", card.Capabilities.Streaming)

	if len(card.Skills) > 0 {
		fmt.Fprintf(w, "\nSkills:\n")
		for _, skill := range card.Skills {
			fmt.Fprintf(w, "  - %s: %s\n", skill.ID, skill.Description)
			if len(skill.Tags) > 0 {
				fmt.Fprintf(w, "    Tags: [%s]\n", strings.Join(skill.Tags, ", "))
			}
			for _, ex := range skill.Examples {
				fmt.Fprintf(w, "    Example: %s\n", ex)
			}
		}
	}

	return nil
}
