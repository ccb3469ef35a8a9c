package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/a2aproject/a2a-go/a2aclient"

	"github.com/shanemcd/alchemy/pkg/a2aexec"
)

// PromptCmd sends input to a server's skill via A2A.
type PromptCmd struct {
	Peer    string            `arg:"" help:"Server address or peer name"`
	Message string            `arg:"" help:"Input to send"`
	Skill   string            `help:"Skill to invoke" default:"chat"`
	Arg     map[string]string `help:"Skill argument (key=value), e.g. --arg language=French"`
	Stream  bool              `help:"Use streaming response" short:"s"`
}

// Run executes the prompt command.
func (c *PromptCmd) Run(cli *CLI, ctx context.Context) error {
	addr := cli.ResolvePeer(c.Peer)
	slog.Debug("sending prompt", "addr", addr, "skill", c.Skill, "streaming", c.Stream)

	conn, err := ConnectToPeer(addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	transport := conn.A2ATransport()
	defer transport.Destroy()

	msg := newPromptMessage(c.Message, c.Skill, c.Arg)
	if c.Stream {
		return doStreamingPrompt(ctx, os.Stdout, transport, msg)
	}
	return doPrompt(ctx, os.Stdout, transport, msg)
}

// newPromptMessage builds a user message addressed to skill.
func newPromptMessage(content, skill string, args map[string]string) *a2a.Message {
	msg := a2a.NewMessage(a2a.MessageRoleUser, a2a.TextPart{Text: content})
	msg.Metadata = map[string]any{a2aexec.MetadataSkill: skill}
	for k, v := range args {
		msg.Metadata[k] = v
	}
	return msg
}

func doPrompt(ctx context.Context, w io.Writer, transport a2aclient.Transport, msg *a2a.Message) error {
	resp, err := transport.SendMessage(ctx, &a2a.MessageSendParams{Message: msg})
	if err != nil {
		return fmt.Errorf("send message failed: %w", err)
	}

	switch r := resp.(type) {
	case *a2a.Task:
		return printTask(w, r)
	case *a2a.Message:
		printMessage(w, r)
	default:
		fmt.Fprintf(w, "Response: %+v\n", resp)
	}
	return nil
}

func doStreamingPrompt(ctx context.Context, w io.Writer, transport a2aclient.Transport, msg *a2a.Message) error {
	events := transport.SendStreamingMessage(ctx, &a2a.MessageSendParams{Message: msg})

	for event, err := range events {
		if err != nil {
			return fmt.Errorf("streaming error: %w", err)
		}

		switch e := event.(type) {
		case *a2a.TaskStatusUpdateEvent:
			if e.Status.State == a2a.TaskStateFailed {
				fmt.Fprintln(w)
				return fmt.Errorf("task failed: %s", statusText(e.Status))
			}
			if e.Status.Message != nil {
				fmt.Fprint(w, textParts(e.Status.Message))
			}
		case *a2a.Message:
			fmt.Fprint(w, textParts(e))
		}
	}
	fmt.Fprintln(w)
	return nil
}

func printTask(w io.Writer, task *a2a.Task) error {
	if task.Status.State == a2a.TaskStateFailed {
		return fmt.Errorf("task failed: %s", statusText(task.Status))
	}
	if task.Status.Message != nil {
		printMessage(w, task.Status.Message)
	}
	return nil
}

func printMessage(w io.Writer, msg *a2a.Message) {
	fmt.Fprintln(w, textParts(msg))
}

func statusText(status a2a.TaskStatus) string {
	if status.Message == nil {
		return string(status.State)
	}
	return textParts(status.Message)
}

func textParts(msg *a2a.Message) string {
	var out string
	for _, part := range msg.Parts {
		if text, ok := part.(a2a.TextPart); ok {
			out += text.Text
		}
	}
	return out
}
