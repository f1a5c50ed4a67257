package transcript

import (
	"testing"

	"github.com/cexll/modelbridge-go/pkg/content"
)

func TestSegmentsText(t *testing.T) {
	tests := []struct {
		name     string
		segments []Segment
		want     string
	}{
		{
			name:     "empty",
			segments: nil,
			want:     "",
		},
		{
			name:     "single text",
			segments: []Segment{TextSegment{Text: "hello"}},
			want:     "hello",
		},
		{
			name: "text segments space joined",
			segments: []Segment{
				TextSegment{Text: "hello"},
				TextSegment{Text: "world"},
			},
			want: "hello world",
		},
		{
			name: "data segment renders canonical json",
			segments: []Segment{
				TextSegment{Text: "result:"},
				DataSegment{Value: content.StructureValue([]content.Field{
					{Key: "city", Value: content.StringValue("Tokyo")},
					{Key: "temp", Value: content.NumberValue(21)},
				})},
			},
			want: `result: {"city":"Tokyo","temp":21}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SegmentsText(tt.segments); got != tt.want {
				t.Fatalf("SegmentsText = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTranscriptAppend(t *testing.T) {
	tr := New()
	if err := tr.Append(nil); err == nil {
		t.Fatal("expected error appending nil entry")
	}
	if err := tr.Append(TextPrompt("hi")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := tr.Append(TextResponse("hello")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if tr.Len() != 2 {
		t.Fatalf("len = %d", tr.Len())
	}
}

func TestEntriesSnapshot(t *testing.T) {
	tr := Of(TextPrompt("a"), TextPrompt("b"))
	snap := tr.Entries()
	if len(snap) != 2 {
		t.Fatalf("snapshot len = %d", len(snap))
	}
	snap[0] = TextResponse("mutated")
	fresh := tr.Entries()
	if _, ok := fresh[0].(Prompt); !ok {
		t.Fatal("mutating a snapshot must not affect the transcript")
	}
}
