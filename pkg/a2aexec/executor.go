// Package a2aexec serves the generation tools as A2A skills.
package a2aexec

import (
	"context"
	"log/slog"
	"strings"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/a2aproject/a2a-go/a2asrv"
	"github.com/a2aproject/a2a-go/a2asrv/eventqueue"

	"github.com/shanemcd/alchemy/pkg/control"
	"github.com/shanemcd/alchemy/pkg/textgen"
	"github.com/shanemcd/alchemy/pkg/tools"
)

const (
	// MetadataSkill is the message metadata key selecting the skill.
	MetadataSkill = "skill"

	// DefaultSkill is used when a message names no skill.
	DefaultSkill = "chat"
)

// Executor implements a2asrv.AgentExecutor on top of a tools.Toolkit.
//
// The skill is read from the message metadata key "skill"; every other
// string metadata value is passed to the tool as an argument.
type Executor struct {
	Toolkit *tools.Toolkit

	// Streaming sends one working status update per text delta, followed
	// by a final completed update. Otherwise a single message is written.
	Streaming bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// State, when set, counts tasks in flight.
	State *control.State
}

// NewExecutor creates a non-streaming Executor for tk.
func NewExecutor(tk *tools.Toolkit) *Executor {
	return &Executor{Toolkit: tk}
}

// Execute implements a2asrv.AgentExecutor.
func (e *Executor) Execute(ctx context.Context, reqCtx *a2asrv.RequestContext, q eventqueue.Queue) error {
	if e.State != nil {
		e.State.TaskStarted()
		defer e.State.TaskDone()
	}

	msg := reqCtx.Message
	skill, args := skillArgs(msg)
	input := textOf(msg)

	e.logger().Debug("executing skill",
		"skill", skill,
		"task_id", reqCtx.TaskID,
		"input_length", len(input),
		"streaming", e.Streaming,
	)

	res, err := e.Toolkit.Run(ctx, skill, input, args)
	if err != nil {
		if err := e.submit(ctx, reqCtx, q); err != nil {
			return err
		}
		return e.fail(ctx, reqCtx, q, textgen.ErrorText(err))
	}

	if e.Streaming {
		return e.stream(ctx, reqCtx, q, res)
	}

	text := res.Text()
	if res.Err() != nil {
		if err := e.submit(ctx, reqCtx, q); err != nil {
			return err
		}
		return e.fail(ctx, reqCtx, q, text)
	}
	return q.Write(ctx, a2a.NewMessage(a2a.MessageRoleAgent, a2a.TextPart{Text: text}))
}

func (e *Executor) stream(ctx context.Context, reqCtx *a2asrv.RequestContext, q eventqueue.Queue, res *textgen.Result) error {
	if err := e.submit(ctx, reqCtx, q); err != nil {
		res.Close()
		return err
	}

	for delta := range res.Fragments() {
		if res.Err() != nil && textgen.IsErrorText(delta) {
			return e.fail(ctx, reqCtx, q, delta)
		}
		event := a2a.NewStatusUpdateEvent(reqCtx, a2a.TaskStateWorking,
			a2a.NewMessage(a2a.MessageRoleAgent, a2a.TextPart{Text: delta}))
		if err := q.Write(ctx, event); err != nil {
			return err
		}
	}

	done := a2a.NewStatusUpdateEvent(reqCtx, a2a.TaskStateCompleted, nil)
	done.Final = true
	return q.Write(ctx, done)
}

// submit creates the task that status updates refer to, unless the
// request continues a stored one.
func (e *Executor) submit(ctx context.Context, reqCtx *a2asrv.RequestContext, q eventqueue.Queue) error {
	if reqCtx.StoredTask != nil {
		return nil
	}
	return q.Write(ctx, a2a.NewSubmittedTask(reqCtx, reqCtx.Message))
}

// fail reports a failure via a final status update. The task must
// already exist.
func (e *Executor) fail(ctx context.Context, reqCtx *a2asrv.RequestContext, q eventqueue.Queue, text string) error {
	e.logger().Warn("skill failed", "task_id", reqCtx.TaskID, "err", text)

	failEvent := a2a.NewStatusUpdateEvent(reqCtx, a2a.TaskStateFailed, &a2a.Message{
		Role: a2a.MessageRoleAgent,
		Parts: []a2a.Part{
			a2a.TextPart{Text: text},
		},
	})
	failEvent.Final = true
	return q.Write(ctx, failEvent)
}

// Cancel implements a2asrv.AgentExecutor. Generation is bound to the
// Execute context, so cancelling only needs to be acknowledged.
func (e *Executor) Cancel(ctx context.Context, reqCtx *a2asrv.RequestContext, q eventqueue.Queue) error {
	event := a2a.NewStatusUpdateEvent(reqCtx, a2a.TaskStateCanceled, nil)
	event.Final = true
	return q.Write(ctx, event)
}

func (e *Executor) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// textOf joins the text parts of msg.
func textOf(msg *a2a.Message) string {
	if msg == nil {
		return ""
	}
	var parts []string
	for _, part := range msg.Parts {
		if text, ok := part.(a2a.TextPart); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// skillArgs reads the skill id and tool arguments from message metadata.
func skillArgs(msg *a2a.Message) (string, map[string]string) {
	skill := DefaultSkill
	args := map[string]string{}
	if msg == nil {
		return skill, args
	}

	for k, v := range msg.Metadata {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if k == MetadataSkill {
			if s != "" {
				skill = s
			}
			continue
		}
		args[k] = s
	}
	return skill, args
}
