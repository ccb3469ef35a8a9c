package llm

import "context"

// EchoProvider is an offline provider that answers with the last user message.
// With no user message it echoes the system prompt, so single-prompt calls
// still produce text.
type EchoProvider struct {
	// ChunkSize splits streamed output into pieces of at most this many
	// bytes. Zero streams the whole response as one event.
	ChunkSize int
}

// NewEchoProvider creates a new echo provider.
func NewEchoProvider() *EchoProvider {
	return &EchoProvider{}
}

// Complete echoes the last user message.
func (p *EchoProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(messages) == 0 {
		return "", nil
	}

	if content := lastUserMessage(messages); content != "" {
		return content, nil
	}
	return messages[0].Content, nil
}

// Stream echoes the last user message, split by ChunkSize.
func (p *EchoProvider) Stream(ctx context.Context, messages []Message) (<-chan StreamEvent, error) {
	response, err := p.Complete(ctx, messages)
	if err != nil {
		return nil, err
	}

	ch := make(chan StreamEvent)

	go func() {
		defer close(ch)

		for _, chunk := range p.split(response) {
			if !send(ctx, ch, StreamEvent{Content: chunk}) {
				return
			}
		}
		send(ctx, ch, StreamEvent{Done: true})
	}()

	return ch, nil
}

// Name returns the provider identifier.
func (p *EchoProvider) Name() string {
	return "echo"
}

func (p *EchoProvider) split(s string) []string {
	if p.ChunkSize <= 0 || len(s) <= p.ChunkSize {
		return []string{s}
	}

	var chunks []string
	for len(s) > 0 {
		n := min(p.ChunkSize, len(s))
		// Avoid cutting a multi-byte rune in half.
		for n < len(s) && !isRuneStart(s[n]) {
			n++
		}
		chunks = append(chunks, s[:n])
		s = s[n:]
	}
	return chunks
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

var _ Provider = (*EchoProvider)(nil)
