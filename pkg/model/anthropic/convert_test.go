package anthropic

import (
	"testing"

	"github.com/cexll/modelbridge-go/pkg/content"
	"github.com/cexll/modelbridge-go/pkg/transcript"
)

func TestConvertSimplePrompt(t *testing.T) {
	messages, system := Convert([]transcript.Entry{
		transcript.TextPrompt("weather in Tokyo"),
	})
	if system != "" {
		t.Fatalf("system = %q, want absent", system)
	}
	if len(messages) != 1 {
		t.Fatalf("messages len = %d", len(messages))
	}
	if messages[0].Role != "user" || !messages[0].Content.IsText() || messages[0].Content.Text() != "weather in Tokyo" {
		t.Fatalf("message = %+v", messages[0])
	}
}

func TestConvertInstructions(t *testing.T) {
	tests := []struct {
		name       string
		entries    []transcript.Entry
		wantSystem string
	}{
		{
			name: "segments space joined",
			entries: []transcript.Entry{
				transcript.Instructions{Segments: []transcript.Segment{
					transcript.TextSegment{Text: "Be brief."},
					transcript.TextSegment{Text: "Be kind."},
				}},
			},
			wantSystem: "Be brief. Be kind.",
		},
		{
			name: "later instructions win",
			entries: []transcript.Entry{
				transcript.Instructions{Segments: []transcript.Segment{transcript.TextSegment{Text: "first"}}},
				transcript.TextPrompt("hi"),
				transcript.Instructions{Segments: []transcript.Segment{transcript.TextSegment{Text: "second"}}},
			},
			wantSystem: "second",
		},
		{
			name: "textless instructions leave prompt unset",
			entries: []transcript.Entry{
				transcript.Instructions{},
			},
			wantSystem: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, system := Convert(tt.entries)
			if system != tt.wantSystem {
				t.Fatalf("system = %q, want %q", system, tt.wantSystem)
			}
		})
	}
}

func TestConvertToolCallPairing(t *testing.T) {
	entries := []transcript.Entry{
		transcript.TextPrompt("look it up"),
		transcript.ToolCalls{Calls: []transcript.ToolCall{
			{ID: "call-1", Name: "search", Arguments: content.StructureValue(nil)},
			{ID: "call-2", Name: "fetch", Arguments: content.StructureValue(nil)},
		}},
		// Caller-assigned output ids differ from the call ids; pairing must
		// come from the queued call ids in FIFO order.
		transcript.TextOutput("out-a", "first result"),
		transcript.TextOutput("out-b", "second result"),
	}

	messages, _ := Convert(entries)
	if len(messages) != 3 {
		t.Fatalf("messages len = %d", len(messages))
	}

	results := messages[2]
	if results.Role != "user" {
		t.Fatalf("results role = %s", results.Role)
	}
	blocks := results.Content.Blocks()
	if len(blocks) != 2 {
		t.Fatalf("result blocks = %d, consecutive outputs must merge", len(blocks))
	}
	if blocks[0].ToolUseID != "call-1" || blocks[1].ToolUseID != "call-2" {
		t.Fatalf("tool_use ids = %s, %s", blocks[0].ToolUseID, blocks[1].ToolUseID)
	}
	if blocks[0].Content != "first result" || blocks[1].Content != "second result" {
		t.Fatalf("result contents = %q, %q", blocks[0].Content, blocks[1].Content)
	}
}

func TestConvertToolOutputIDFallback(t *testing.T) {
	entries := []transcript.Entry{
		transcript.TextOutput("orphan-id", "stale result"),
		transcript.TextPrompt("next"),
	}

	messages, _ := Convert(entries)
	if len(messages) != 2 {
		t.Fatalf("messages len = %d", len(messages))
	}

	blocks := messages[0].Content.Blocks()
	if len(blocks) != 1 || blocks[0].ToolUseID != "orphan-id" {
		t.Fatalf("fallback block = %+v", blocks)
	}
	if !messages[1].Content.IsText() || messages[1].Content.Text() != "next" {
		t.Fatalf("prompt must stay a separate message, got %+v", messages[1])
	}
}

func TestConvertTrailingOutputsFlushed(t *testing.T) {
	entries := []transcript.Entry{
		transcript.TextPrompt("go"),
		transcript.ToolCalls{Calls: []transcript.ToolCall{{ID: "c1", Name: "run"}}},
		transcript.TextOutput("c1", "done"),
	}
	messages, _ := Convert(entries)
	if len(messages) != 3 {
		t.Fatalf("messages len = %d, trailing results must flush", len(messages))
	}
	if messages[2].Role != "user" {
		t.Fatalf("trailing flush role = %s", messages[2].Role)
	}
}

// Message count equals prompts + responses + tool-call turns + maximal runs
// of consecutive tool outputs.
func TestConvertMessageCount(t *testing.T) {
	entries := []transcript.Entry{
		transcript.Instructions{Segments: []transcript.Segment{transcript.TextSegment{Text: "sys"}}},
		transcript.TextPrompt("one"),                                                // 1
		transcript.TextResponse("two"),                                              // 2
		transcript.ToolCalls{Calls: []transcript.ToolCall{{ID: "a", Name: "x"}}},    // 3
		transcript.TextOutput("a", "ra"),                                            // run 1 ...
		transcript.TextOutput("b", "rb"),                                            // ... still run 1 -> 4
		transcript.TextPrompt("three"),                                              // 5
		transcript.ToolCalls{Calls: []transcript.ToolCall{{ID: "c", Name: "y"}}},    // 6
		transcript.TextOutput("c", "rc"),                                            // run 2 -> 7
	}
	messages, _ := Convert(entries)
	if len(messages) != 7 {
		t.Fatalf("messages len = %d, want 7", len(messages))
	}
}

func TestActiveAccessors(t *testing.T) {
	temp := 0.3
	entries := []transcript.Entry{
		transcript.Instructions{Tools: []transcript.ToolDecl{{Name: "search"}}},
		transcript.Prompt{
			Segments:     []transcript.Segment{transcript.TextSegment{Text: "old"}},
			OutputSchema: []byte(`{"type":"object"}`),
		},
		transcript.Instructions{Tools: []transcript.ToolDecl{{Name: "fetch"}, {Name: "run"}}},
		transcript.Prompt{
			Segments: []transcript.Segment{transcript.TextSegment{Text: "new"}},
			Options:  &transcript.Options{Temperature: &temp},
		},
	}

	tools := ActiveToolDecls(entries)
	if len(tools) != 2 || tools[0].Name != "fetch" {
		t.Fatalf("tools = %+v", tools)
	}

	schemaRaw := ActiveOutputSchema(entries)
	if string(schemaRaw) != `{"type":"object"}` {
		t.Fatalf("schema = %s", schemaRaw)
	}

	opts := ActiveOptions(entries)
	if opts == nil || opts.Temperature == nil || *opts.Temperature != 0.3 {
		t.Fatalf("options = %+v", opts)
	}
}

func TestActiveAccessorsEmpty(t *testing.T) {
	entries := []transcript.Entry{transcript.TextPrompt("hi")}
	if ActiveToolDecls(entries) != nil {
		t.Fatal("expected no tools")
	}
	if ActiveOutputSchema(entries) != nil {
		t.Fatal("expected no schema")
	}
	if ActiveOptions(entries) != nil {
		t.Fatal("expected no options")
	}
}
