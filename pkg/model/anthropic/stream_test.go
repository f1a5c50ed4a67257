package anthropic

import (
	"errors"
	"testing"

	"github.com/cexll/modelbridge-go/pkg/content"
	"github.com/cexll/modelbridge-go/pkg/schema"
	"github.com/cexll/modelbridge-go/pkg/transcript"
)

func feedAll(t *testing.T, rec *Reconstructor, events []string) []transcript.Entry {
	t.Helper()
	var out []transcript.Entry
	for _, ev := range events {
		entries, err := rec.Feed([]byte(ev))
		if err != nil {
			t.Fatalf("feed %s: %v", ev, err)
		}
		out = append(out, entries...)
	}
	return out
}

func entryText(t *testing.T, e transcript.Entry) string {
	t.Helper()
	resp, ok := e.(transcript.Response)
	if !ok {
		t.Fatalf("entry %T is not a response", e)
	}
	return transcript.SegmentsText(resp.Segments)
}

func TestReconstructorCumulativeText(t *testing.T) {
	rec := NewReconstructor(nil, nil)
	entries := feedAll(t, rec, []string{
		`{"type":"message_start","message":{"id":"msg_1","role":"assistant"}}`,
		`{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hello"}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":" world"}}`,
		`{"type":"content_block_stop","index":0}`,
		`{"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":2}}`,
		`{"type":"message_stop"}`,
	})

	// Each emission reinterprets all text so far: exactly two entries.
	if len(entries) != 2 {
		t.Fatalf("entries len = %d, want 2", len(entries))
	}
	if got := entryText(t, entries[0]); got != "Hello" {
		t.Fatalf("first = %q", got)
	}
	if got := entryText(t, entries[1]); got != "Hello world" {
		t.Fatalf("second = %q", got)
	}
	if !rec.Done() {
		t.Fatal("reconstructor must report done")
	}
	if rec.StopReason() != "end_turn" {
		t.Fatalf("stop reason = %q", rec.StopReason())
	}
	if rec.Usage().OutputTokens != 2 {
		t.Fatalf("usage = %+v", rec.Usage())
	}
}

func TestReconstructorToolCalls(t *testing.T) {
	store := NewThinkingStore()
	rec := NewReconstructor(nil, store)
	entries := feedAll(t, rec, []string{
		`{"type":"message_start","message":{"id":"msg_1","role":"assistant"}}`,
		`{"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":"tu_1","name":"search","input":{}}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"{\"query\": \"US "}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"tariffs\"}"}}`,
		`{"type":"content_block_stop","index":0}`,
		`{"type":"message_stop"}`,
	})

	if len(entries) != 1 {
		t.Fatalf("entries len = %d", len(entries))
	}
	calls, ok := entries[0].(transcript.ToolCalls)
	if !ok {
		t.Fatalf("entry = %T", entries[0])
	}
	if len(calls.Calls) != 1 {
		t.Fatalf("calls = %+v", calls.Calls)
	}
	call := calls.Calls[0]
	if call.ID != "tu_1" || call.Name != "search" {
		t.Fatalf("call = %+v", call)
	}
	query, ok := call.Arguments.Get("query")
	if !ok || query.Str != "US tariffs" {
		t.Fatalf("arguments = %+v", call.Arguments)
	}
}

func TestReconstructorMalformedToolArgs(t *testing.T) {
	rec := NewReconstructor(nil, nil)
	entries := feedAll(t, rec, []string{
		`{"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":"tu_1","name":"run"}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"{\"broken"}}`,
		`{"type":"content_block_stop","index":0}`,
		`{"type":"message_stop"}`,
	})

	calls := entries[0].(transcript.ToolCalls)
	args := calls.Calls[0].Arguments
	if args.Kind != content.KindString || args.Str != `{"broken` {
		t.Fatalf("arguments = %+v, want opaque string degrade", args)
	}
}

func TestReconstructorEmptyToolArgs(t *testing.T) {
	rec := NewReconstructor(nil, nil)
	entries := feedAll(t, rec, []string{
		`{"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":"tu_1","name":"ping"}}`,
		`{"type":"content_block_stop","index":0}`,
		`{"type":"message_stop"}`,
	})

	args := entries[0].(transcript.ToolCalls).Calls[0].Arguments
	if args.Kind != content.KindStructure || len(args.Fields) != 0 {
		t.Fatalf("arguments = %+v, want empty structure", args)
	}
}

func TestReconstructorThinkingContinuity(t *testing.T) {
	store := NewThinkingStore()
	rec := NewReconstructor(nil, store)
	feedAll(t, rec, []string{
		`{"type":"content_block_start","index":0,"content_block":{"type":"thinking","thinking":""}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"thinking_delta","thinking":"let me check"}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"signature_delta","signature":"sig-abc"}}`,
		`{"type":"content_block_stop","index":0}`,
		`{"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"tu_1","name":"search"}}`,
		`{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{}"}}`,
		`{"type":"content_block_stop","index":1}`,
		`{"type":"message_stop"}`,
	})

	pending := store.Take()
	if len(pending) != 1 {
		t.Fatalf("pending = %+v", pending)
	}
	if pending[0].Thinking != "let me check" || pending[0].Signature != "sig-abc" {
		t.Fatalf("pending[0] = %+v", pending[0])
	}
}

func TestReconstructorRedactedThinking(t *testing.T) {
	store := NewThinkingStore()
	rec := NewReconstructor(nil, store)
	feedAll(t, rec, []string{
		`{"type":"content_block_start","index":0,"content_block":{"type":"redacted_thinking","data":"opaque-blob"}}`,
		`{"type":"content_block_stop","index":0}`,
		`{"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"tu_1","name":"run"}}`,
		`{"type":"content_block_stop","index":1}`,
		`{"type":"message_stop"}`,
	})

	pending := store.Take()
	if len(pending) != 1 || pending[0].Type != "redacted_thinking" || pending[0].Data != "opaque-blob" {
		t.Fatalf("pending = %+v", pending)
	}
}

func TestReconstructorTextOnlyTurnSkipsStore(t *testing.T) {
	store := NewThinkingStore()
	store.StoreDirect([]ContentBlock{ThinkingBlock("earlier", "")})

	rec := NewReconstructor(nil, store)
	feedAll(t, rec, []string{
		`{"type":"content_block_start","index":0,"content_block":{"type":"thinking"}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"thinking_delta","thinking":"hmm"}}`,
		`{"type":"content_block_stop","index":0}`,
		`{"type":"content_block_start","index":1,"content_block":{"type":"text"}}`,
		`{"type":"content_block_delta","index":1,"delta":{"type":"text_delta","text":"answer"}}`,
		`{"type":"content_block_stop","index":1}`,
		`{"type":"message_stop"}`,
	})

	// No tool calls in the turn: thinking is not carried forward, and the
	// previously pending set survives until consumed.
	pending := store.Take()
	if len(pending) != 1 || pending[0].Thinking != "earlier" {
		t.Fatalf("pending = %+v", pending)
	}
}

func TestReconstructorStructuredOutput(t *testing.T) {
	guide, err := schema.Parse([]byte(`{
		"type":"object",
		"properties":{
			"answer":{"type":"string"},
			"tags":{"type":"array","items":{"type":"string"}}
		},
		"required":["answer"]
	}`))
	if err != nil {
		t.Fatalf("parse guide: %v", err)
	}

	rec := NewReconstructor(guide, nil)
	entries := feedAll(t, rec, []string{
		`{"type":"content_block_start","index":0,"content_block":{"type":"text"}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"{\"answer\":\"42\","}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"\"tags\":{}}"}}`,
		`{"type":"content_block_stop","index":0}`,
		`{"type":"message_stop"}`,
	})

	final := entries[len(entries)-1]
	resp, ok := final.(transcript.Response)
	if !ok {
		t.Fatalf("final = %T", final)
	}
	data, ok := resp.Segments[0].(transcript.DataSegment)
	if !ok {
		t.Fatalf("segment = %T, want structured", resp.Segments[0])
	}
	answer, ok := data.Value.Get("answer")
	if !ok || answer.Str != "42" {
		t.Fatalf("answer = %+v", answer)
	}
	// Empty-object quirk corrected through the guide.
	tags, ok := data.Value.Get("tags")
	if !ok || tags.Kind != content.KindArray || len(tags.Items) != 0 {
		t.Fatalf("tags = %+v", tags)
	}
}

func TestReconstructorUnparsableStructuredFallsBackToText(t *testing.T) {
	guide, err := schema.Parse([]byte(`{"type":"object","properties":{"a":{"type":"string"}}}`))
	if err != nil {
		t.Fatalf("parse guide: %v", err)
	}

	rec := NewReconstructor(guide, nil)
	entries := feedAll(t, rec, []string{
		`{"type":"content_block_start","index":0,"content_block":{"type":"text"}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"not json"}}`,
		`{"type":"content_block_stop","index":0}`,
		`{"type":"message_stop"}`,
	})

	final := entries[len(entries)-1]
	if got := entryText(t, final); got != "not json" {
		t.Fatalf("final text = %q", got)
	}
}

func TestReconstructorEmptyTurn(t *testing.T) {
	rec := NewReconstructor(nil, nil)
	entries := feedAll(t, rec, []string{
		`{"type":"message_start","message":{"id":"msg_1"}}`,
		`{"type":"ping"}`,
		`{"type":"message_stop"}`,
	})

	if len(entries) != 1 {
		t.Fatalf("entries len = %d, want exactly one empty entry", len(entries))
	}
	if got := entryText(t, entries[0]); got != "" {
		t.Fatalf("entry text = %q", got)
	}
}

func TestReconstructorErrorEvent(t *testing.T) {
	rec := NewReconstructor(nil, nil)
	_, err := rec.Feed([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"busy"}}`))
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %T", err)
	}
	if apiErr.Type != "overloaded_error" || apiErr.Message != "busy" {
		t.Fatalf("apiErr = %+v", apiErr)
	}
}
