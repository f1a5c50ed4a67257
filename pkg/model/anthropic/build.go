package anthropic

import (
	"fmt"

	"github.com/cexll/modelbridge-go/pkg/schema"
	"github.com/cexll/modelbridge-go/pkg/transcript"
)

// BuildParams carries the per-call inputs of BuildRequest beyond the
// transcript itself.
type BuildParams struct {
	ModelID string

	// Options overrides transcript-derived generation options; when nil the
	// most recent prompt's options apply.
	Options *transcript.Options

	// DefaultMaxTokens is the text token budget used when neither Options
	// nor the transcript requests one.
	DefaultMaxTokens int

	// ThinkingBudget enables extended thinking with the given token budget
	// when positive. The budget is added on top of the text budget, and
	// temperature/top_k are forced absent for the call.
	ThinkingBudget int

	// Thinking is the pending thinking block set to inject ahead of the last
	// assistant message, typically ThinkingStore.Take().
	Thinking []ContentBlock

	Stream   bool
	Metadata map[string]any
}

// BuildRequest assembles one finalized Messages API request from a
// transcript. It returns the request, any extra headers the call must carry,
// and the parsed output schema guide when the transcript requests structured
// output.
//
// A schema that cannot be expressed as an object-rooted wire schema is a
// hard error: silently dropping it would degrade the call to free text.
func BuildRequest(entries []transcript.Entry, p BuildParams) (MessageRequest, map[string]string, *schema.Guide, error) {
	messages, system := Convert(entries)
	messages = InjectThinking(p.Thinking, messages)

	opts := p.Options
	if opts == nil {
		opts = ActiveOptions(entries)
	}

	req := MessageRequest{
		Model:    p.ModelID,
		Messages: messages,
		System:   system,
		Stream:   p.Stream,
		Metadata: p.Metadata,
	}

	textBudget := p.DefaultMaxTokens
	if textBudget <= 0 {
		textBudget = defaultMaxTokens
	}
	if opts != nil {
		if opts.MaxTokens != nil && *opts.MaxTokens > 0 {
			textBudget = *opts.MaxTokens
		}
		req.Temperature = opts.Temperature
		req.TopP = opts.TopP
		req.TopK = opts.TopK
	}
	req.MaxTokens = textBudget

	if p.ThinkingBudget > 0 {
		// Extended thinking tokens come on top of the text budget, and the
		// API rejects temperature/top_k alongside thinking. top_p stays.
		req.MaxTokens = p.ThinkingBudget + textBudget
		req.Temperature = nil
		req.TopK = nil
		req.Thinking = &ThinkingConfig{Type: "enabled", BudgetTokens: p.ThinkingBudget}
	}

	if tools := ActiveToolDecls(entries); len(tools) > 0 {
		req.Tools = make([]ToolParam, 0, len(tools))
		for _, tool := range tools {
			req.Tools = append(req.Tools, ToolParam{
				Name:        tool.Name,
				Description: tool.Description,
				InputSchema: tool.InputSchema,
			})
		}
		req.ToolChoice = &ToolChoice{Type: "auto"}
	}

	headers := map[string]string{}
	var guide *schema.Guide
	if raw := ActiveOutputSchema(entries); len(raw) > 0 {
		parsed, err := schema.Parse(raw)
		if err != nil {
			return MessageRequest{}, nil, nil, fmt.Errorf("translate output schema: %w", err)
		}
		if parsed.Type != "object" {
			return MessageRequest{}, nil, nil, ErrSchemaNotObject
		}
		guide = parsed
		req.OutputFormat = &OutputFormat{Type: "json_schema", Schema: raw}
		headers[betaHeader] = betaStructuredOutputs
	}

	return req, headers, guide, nil
}
