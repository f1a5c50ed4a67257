package transcript

import (
	"encoding/json"
	"strings"

	"github.com/cexll/modelbridge-go/pkg/content"
)

// Entry is one immutable item of a conversation transcript. The concrete
// variants are Instructions, Prompt, Response, ToolCalls and ToolOutput.
type Entry interface {
	isEntry()
}

// Segment is one unit of entry content: either plain text or a structured
// value.
type Segment interface {
	isSegment()
}

// TextSegment carries plain text.
type TextSegment struct {
	Text string
}

func (TextSegment) isSegment() {}

// DataSegment carries a structured value; it serializes as canonical JSON.
type DataSegment struct {
	Value content.Value
}

func (DataSegment) isSegment() {}

// SegmentsText renders segments as one string. Text segments contribute
// their raw text, data segments their canonical JSON; segments are joined
// with a single space.
func SegmentsText(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch s := seg.(type) {
		case TextSegment:
			parts = append(parts, s.Text)
		case DataSegment:
			data, err := json.Marshal(s.Value)
			if err != nil {
				continue
			}
			parts = append(parts, string(data))
		}
	}
	return strings.Join(parts, " ")
}

// ToolDecl declares a tool the model may invoke.
type ToolDecl struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// Options carries generation sampling parameters. Nil pointer fields mean
// "use the provider default".
type Options struct {
	MaxTokens   *int
	Temperature *float64
	TopP        *float64
	TopK        *int
}

// Instructions sets system-level guidance and the active tool set.
type Instructions struct {
	Segments []Segment
	Tools    []ToolDecl
}

func (Instructions) isEntry() {}

// Prompt is a user turn. OutputSchema, when present, requests
// schema-constrained structured output for the following response.
type Prompt struct {
	Segments     []Segment
	Options      *Options
	OutputSchema json.RawMessage
}

func (Prompt) isEntry() {}

// Response is an assistant turn.
type Response struct {
	Segments []Segment
}

func (Response) isEntry() {}

// ToolCall is a single named tool invocation with structured arguments.
type ToolCall struct {
	ID        string
	Name      string
	Arguments content.Value
}

// ToolCalls is an assistant turn consisting of one or more tool invocations.
type ToolCalls struct {
	Calls []ToolCall
}

func (ToolCalls) isEntry() {}

// ToolOutput reports the result of a tool invocation. CallID references the
// invoking call.
type ToolOutput struct {
	CallID   string
	Segments []Segment
	IsError  bool
}

func (ToolOutput) isEntry() {}

// TextPrompt builds a Prompt with a single text segment.
func TextPrompt(text string) Prompt {
	return Prompt{Segments: []Segment{TextSegment{Text: text}}}
}

// TextResponse builds a Response with a single text segment.
func TextResponse(text string) Response {
	return Response{Segments: []Segment{TextSegment{Text: text}}}
}

// DataResponse builds a Response carrying one structured value.
func DataResponse(val content.Value) Response {
	return Response{Segments: []Segment{DataSegment{Value: val}}}
}

// TextOutput builds a ToolOutput with a single text segment.
func TextOutput(callID, text string) ToolOutput {
	return ToolOutput{CallID: callID, Segments: []Segment{TextSegment{Text: text}}}
}
