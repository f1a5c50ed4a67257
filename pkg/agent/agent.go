// Package agent drives a conversation loop: it sends the session transcript
// to a model, executes any tool calls the model emits, feeds the outputs
// back, and repeats until the model produces a plain response.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	modelpkg "github.com/cexll/modelbridge-go/pkg/model"
	"github.com/cexll/modelbridge-go/pkg/session"
	"github.com/cexll/modelbridge-go/pkg/tool"
	"github.com/cexll/modelbridge-go/pkg/transcript"
)

const defaultMaxTurns = 8

// ErrMaxTurns reports a loop that exhausted its round-trip budget while the
// model kept requesting tools.
var ErrMaxTurns = errors.New("agent: max turns exceeded")

// Config describes the collaborators for an Agent.
type Config struct {
	Model   modelpkg.Model
	Tools   *tool.Registry
	Session *session.Session
	// System seeds the conversation instructions on the first turn.
	System string
	// MaxTurns caps model round-trips per Run. Zero means the default.
	MaxTurns int
}

// Validate reports missing collaborators before the first call.
func (c Config) Validate() error {
	if c.Model == nil {
		return errors.New("agent: model is required")
	}
	if c.MaxTurns < 0 {
		return errors.New("agent: max turns must not be negative")
	}
	return nil
}

// RunResult captures the final outcome for a single Run.
type RunResult struct {
	// Output is the model's final response text.
	Output string
	// ToolCalls lists every tool invocation made during the run, in order.
	ToolCalls []transcript.ToolCall
	// Turns counts the model round-trips consumed.
	Turns int
}

// Agent owns one conversation and its tool set.
type Agent struct {
	cfg  Config
	sess *session.Session
}

// New constructs an Agent. When cfg.Session is nil a private session backs
// the conversation.
func New(cfg Config) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sess := cfg.Session
	if sess == nil {
		var err error
		sess, err = session.New("agent")
		if err != nil {
			return nil, err
		}
	}
	if cfg.MaxTurns == 0 {
		cfg.MaxTurns = defaultMaxTurns
	}
	return &Agent{cfg: cfg, sess: sess}, nil
}

// Session exposes the conversation for checkpointing or inspection.
func (a *Agent) Session() *session.Session {
	return a.sess
}

// Run appends input as a user prompt and loops the model until it stops
// requesting tools, returning the final text.
func (a *Agent) Run(ctx context.Context, input string) (*RunResult, error) {
	return a.run(ctx, input, nil)
}

// RunStream behaves like Run but relays every streamed entry to cb as it is
// reconstructed. Text entries are provisional until the result marked final.
func (a *Agent) RunStream(ctx context.Context, input string, cb modelpkg.StreamCallback) (*RunResult, error) {
	if cb == nil {
		return nil, errors.New("agent: stream callback is required")
	}
	return a.run(ctx, input, cb)
}

func (a *Agent) run(ctx context.Context, input string, cb modelpkg.StreamCallback) (*RunResult, error) {
	if strings.TrimSpace(input) == "" {
		return nil, errors.New("agent: input is empty")
	}

	if err := a.seedInstructions(); err != nil {
		return nil, err
	}
	if err := a.sess.Append(transcript.TextPrompt(input)); err != nil {
		return nil, err
	}

	result := &RunResult{}
	for result.Turns < a.cfg.MaxTurns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Turns++

		entries, err := a.generate(ctx, cb)
		if err != nil {
			return nil, err
		}
		if err := a.sess.Append(entries...); err != nil {
			return nil, err
		}

		calls, text := splitTurn(entries)
		if len(calls) == 0 {
			result.Output = text
			return result, nil
		}

		result.ToolCalls = append(result.ToolCalls, calls...)
		if err := a.dispatch(ctx, calls); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w (%d)", ErrMaxTurns, a.cfg.MaxTurns)
}

// seedInstructions installs the system text and tool declarations once, at
// the start of the conversation.
func (a *Agent) seedInstructions() error {
	if a.sess.Len() > 0 {
		return nil
	}
	var decls []transcript.ToolDecl
	if a.cfg.Tools != nil {
		decls = a.cfg.Tools.Declarations()
	}
	if a.cfg.System == "" && len(decls) == 0 {
		return nil
	}
	intro := transcript.Instructions{Tools: decls}
	if a.cfg.System != "" {
		intro.Segments = []transcript.Segment{transcript.TextSegment{Text: a.cfg.System}}
	}
	return a.sess.Append(intro)
}

func (a *Agent) generate(ctx context.Context, cb modelpkg.StreamCallback) ([]transcript.Entry, error) {
	t := a.sess.Transcript()
	if cb == nil {
		return a.cfg.Model.Generate(ctx, t)
	}

	// Streamed text entries are cumulative, so only the last Response per
	// turn is kept; tool-call entries arrive once at the end of the turn.
	var lastResp transcript.Entry
	var calls []transcript.Entry
	err := a.cfg.Model.GenerateStream(ctx, t, func(res modelpkg.StreamResult) error {
		switch res.Entry.(type) {
		case transcript.Response:
			lastResp = res.Entry
		case transcript.ToolCalls:
			calls = append(calls, res.Entry)
		}
		return cb(res)
	})
	if err != nil {
		return nil, err
	}

	var turn []transcript.Entry
	if lastResp != nil {
		turn = append(turn, lastResp)
	}
	return append(turn, calls...), nil
}

func (a *Agent) dispatch(ctx context.Context, calls []transcript.ToolCall) error {
	if a.cfg.Tools == nil {
		return errors.New("agent: model requested tools but none are registered")
	}
	for _, call := range calls {
		out, err := a.cfg.Tools.Execute(ctx, call)
		if err != nil {
			return fmt.Errorf("execute tool %s: %w", call.Name, err)
		}
		if err := a.sess.Append(out); err != nil {
			return err
		}
	}
	return nil
}

// splitTurn separates a turn's entries into tool calls and response text.
func splitTurn(entries []transcript.Entry) ([]transcript.ToolCall, string) {
	var calls []transcript.ToolCall
	var text string
	for _, entry := range entries {
		switch e := entry.(type) {
		case transcript.ToolCalls:
			calls = append(calls, e.Calls...)
		case transcript.Response:
			text = transcript.SegmentsText(e.Segments)
		}
	}
	return calls, text
}
