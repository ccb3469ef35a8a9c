package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/shanemcd/alchemy/pkg/llm"
	"github.com/shanemcd/alchemy/pkg/stream"
	"github.com/shanemcd/alchemy/pkg/textgen"
)

const defaultSystemPrompt = "You are a helpful assistant."

// ChatCmd runs an interactive conversation.
type ChatCmd struct {
	System string `help:"System prompt" default:"You are a helpful assistant."`
	Model  string `short:"m" help:"Model for this session (overrides --llm-model)"`
}

// Run executes the chat command.
func (c *ChatCmd) Run(cli *CLI, ctx context.Context) error {
	var opts []textgen.Option
	if c.Model != "" {
		opts = append(opts, textgen.WithModel(c.Model))
	}
	tk, release, err := cli.Toolkit(ctx, opts...)
	if err != nil {
		return err
	}
	defer release()

	you := color.New(color.FgGreen, color.Bold).SprintFunc()
	assistant := color.New(color.FgCyan, color.Bold).SprintFunc()

	fmt.Println(you("alchemy chat"))
	fmt.Println("Type your message and press Enter. Type 'exit' or press Ctrl+C to quit.")
	fmt.Println()

	system := c.System
	if strings.TrimSpace(system) == "" {
		system = defaultSystemPrompt
	}
	conversation := []llm.Message{{Role: llm.RoleSystem, Content: system}}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(you("You: "))
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if cmd := strings.ToLower(input); cmd == "exit" || cmd == "quit" {
			break
		}

		conversation = append(conversation, llm.Message{Role: llm.RoleUser, Content: input})

		fmt.Print(assistant("Assistant: "))
		res, err := tk.Chat(ctx, conversation)
		if err != nil {
			return err
		}
		reply := stream.Collect(res.Fragments(), func(delta string) {
			fmt.Print(delta)
		})
		fmt.Println()
		fmt.Println()

		if err := res.Err(); err != nil {
			// Drop the unanswered turn so the user can retry it.
			conversation = conversation[:len(conversation)-1]
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		conversation = append(conversation, llm.Message{Role: llm.RoleAssistant, Content: reply})
	}
	return scanner.Err()
}
