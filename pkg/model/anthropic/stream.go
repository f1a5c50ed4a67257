package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/cexll/modelbridge-go/pkg/content"
	"github.com/cexll/modelbridge-go/pkg/schema"
	"github.com/cexll/modelbridge-go/pkg/transcript"
)

type streamState int

const (
	stateIdle streamState = iota
	stateInText
	stateInToolUse
	stateInThinking
)

// pendingCall accumulates one tool_use block while its argument JSON streams
// in fragments.
type pendingCall struct {
	id   string
	name string
	args []byte
}

// Reconstructor rebuilds complete transcript entries from the ordered stream
// of Messages API events. One instance serves exactly one in-flight stream;
// it is not safe for concurrent use.
//
// Text deltas yield immediately: every emission is a full reinterpretation
// of all text received so far, never an incremental fragment. Tool calls and
// thinking blocks are withheld until the message stops.
type Reconstructor struct {
	guide *schema.Guide
	store *ThinkingStore

	state       streamState
	text        strings.Builder
	calls       []pendingCall
	thinkingBuf strings.Builder
	sigBuf      strings.Builder
	thinking    []ContentBlock

	yielded    bool
	done       bool
	stopReason string
	usage      Usage
}

// NewReconstructor builds a reconstructor for one stream. guide may be nil
// when no output schema is active; store may be nil when thinking
// continuity is not tracked.
func NewReconstructor(guide *schema.Guide, store *ThinkingStore) *Reconstructor {
	return &Reconstructor{guide: guide, store: store}
}

// Done reports whether message_stop has been consumed.
func (r *Reconstructor) Done() bool { return r.done }

// StopReason returns the stop reason reported by message_delta, if any.
func (r *Reconstructor) StopReason() string { return r.stopReason }

// Usage returns the token usage reported by message_delta.
func (r *Reconstructor) Usage() Usage { return r.usage }

// Feed consumes one raw event payload and returns the transcript entries to
// emit for it, zero or more. A protocol error event is returned as an
// APIError and terminates the stream.
func (r *Reconstructor) Feed(data []byte) ([]transcript.Entry, error) {
	switch gjson.GetBytes(data, "type").String() {
	case "message_start", "ping":
		return nil, nil

	case "content_block_start":
		var ev ContentBlockStartEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode content_block_start: %w", err)
		}
		r.handleBlockStart(ev.ContentBlock)
		return nil, nil

	case "content_block_delta":
		var ev ContentBlockDeltaEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode content_block_delta: %w", err)
		}
		return r.handleDelta(ev.Delta), nil

	case "content_block_stop":
		r.handleBlockStop()
		return nil, nil

	case "message_delta":
		var ev MessageDeltaEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode message_delta: %w", err)
		}
		if ev.Delta.StopReason != nil {
			r.stopReason = *ev.Delta.StopReason
		}
		r.usage = ev.Usage
		return nil, nil

	case "message_stop":
		return r.finish(), nil

	case "error":
		var ev ErrorEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode error event: %w", err)
		}
		return nil, APIError{Type: ev.Error.Type, Message: ev.Error.Message}

	default:
		return nil, nil
	}
}

func (r *Reconstructor) handleBlockStart(block ContentBlock) {
	switch block.Type {
	case blockTypeText:
		r.state = stateInText
	case blockTypeToolUse:
		r.calls = append(r.calls, pendingCall{id: block.ID, name: block.Name})
		r.state = stateInToolUse
	case blockTypeThinking:
		r.thinkingBuf.Reset()
		r.sigBuf.Reset()
		r.state = stateInThinking
	case blockTypeRedactedThinking:
		// Redacted thinking arrives whole in the start event.
		r.thinking = append(r.thinking, RedactedThinkingBlock(block.Data))
		r.state = stateIdle
	default:
		r.state = stateIdle
	}
}

func (r *Reconstructor) handleDelta(delta BlockDelta) []transcript.Entry {
	switch delta.Type {
	case "text_delta":
		r.text.WriteString(delta.Text)
		r.yielded = true
		return []transcript.Entry{transcript.TextResponse(r.text.String())}

	case "input_json_delta":
		// Fragments within one block arrive in strict append order and are
		// concatenated verbatim; the JSON is generally invalid until the
		// block closes, so nothing is emitted here.
		if n := len(r.calls); n > 0 {
			r.calls[n-1].args = append(r.calls[n-1].args, delta.PartialJSON...)
		}
		return nil

	case "thinking_delta":
		r.thinkingBuf.WriteString(delta.Thinking)
		return nil

	case "signature_delta":
		r.sigBuf.WriteString(delta.Signature)
		return nil

	default:
		return nil
	}
}

func (r *Reconstructor) handleBlockStop() {
	if r.state == stateInThinking && (r.thinkingBuf.Len() > 0 || r.sigBuf.Len() > 0) {
		r.thinking = append(r.thinking, ThinkingBlock(r.thinkingBuf.String(), r.sigBuf.String()))
		r.thinkingBuf.Reset()
		r.sigBuf.Reset()
	}
	r.state = stateIdle
}

func (r *Reconstructor) finish() []transcript.Entry {
	r.done = true

	if len(r.calls) > 0 {
		if len(r.thinking) > 0 && r.store != nil {
			r.store.StoreDirect(r.thinking)
		}
		calls := make([]transcript.ToolCall, len(r.calls))
		for i, c := range r.calls {
			calls[i] = transcript.ToolCall{ID: c.id, Name: c.name, Arguments: parseCallArgs(c.args)}
		}
		return []transcript.Entry{transcript.ToolCalls{Calls: calls}}
	}

	if text := r.text.String(); text != "" {
		if r.guide != nil {
			var raw any
			if err := json.Unmarshal([]byte(text), &raw); err == nil {
				return []transcript.Entry{transcript.DataResponse(schema.Normalize(raw, r.guide))}
			}
			return []transcript.Entry{transcript.TextResponse(text)}
		}
		// Plain text was already fully yielded by the last text_delta.
		return nil
	}

	if !r.yielded {
		// Guarantee at least one entry per turn even for an empty response.
		return []transcript.Entry{transcript.TextResponse("")}
	}
	return nil
}

// parseCallArgs interprets an accumulated argument buffer. Malformed JSON
// degrades to an opaque string so the invocation is still reported.
func parseCallArgs(buf []byte) content.Value {
	if len(buf) == 0 {
		return content.StructureValue(nil)
	}
	val, err := content.ParseJSON(buf)
	if err != nil {
		return content.StringValue(string(buf))
	}
	return val
}
