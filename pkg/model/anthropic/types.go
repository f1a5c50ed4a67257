package anthropic

import (
	"encoding/json"
	"fmt"
)

const (
	defaultBaseURL     = "https://api.anthropic.com"
	messagesPath       = "/v1/messages"
	anthropicVersion   = "2023-06-01"
	defaultMaxTokens   = 4096
	defaultHTTPTimeout = 120 // seconds
	userAgent          = "modelbridge-go/anthropic"

	// Opt-in capability header required whenever a request carries an
	// output_format schema.
	betaHeader            = "Anthropic-Beta"
	betaStructuredOutputs = "structured-outputs-2025-11-13"
)

// Content block discriminants fixed by the Messages API.
const (
	blockTypeText             = "text"
	blockTypeToolUse          = "tool_use"
	blockTypeToolResult       = "tool_result"
	blockTypeThinking         = "thinking"
	blockTypeRedactedThinking = "redacted_thinking"
)

// MessageRequest follows the Anthropic Messages API contract.
type MessageRequest struct {
	Model        string          `json:"model"`
	Messages     []MessageParam  `json:"messages"`
	System       string          `json:"system,omitempty"`
	MaxTokens    int             `json:"max_tokens"`
	Temperature  *float64        `json:"temperature,omitempty"`
	TopP         *float64        `json:"top_p,omitempty"`
	TopK         *int            `json:"top_k,omitempty"`
	Stream       bool            `json:"stream,omitempty"`
	Tools        []ToolParam     `json:"tools,omitempty"`
	ToolChoice   *ToolChoice     `json:"tool_choice,omitempty"`
	Thinking     *ThinkingConfig `json:"thinking,omitempty"`
	OutputFormat *OutputFormat   `json:"output_format,omitempty"`
	Metadata     map[string]any  `json:"metadata,omitempty"`
}

// MessageParam represents a single conversational turn for Anthropic.
type MessageParam struct {
	Role    string         `json:"role"`
	Content MessageContent `json:"content"`
}

// MessageContent is either a bare string (text-only shorthand) or an ordered
// list of content blocks, matching the wire encoding of the messages field.
type MessageContent struct {
	text   string
	blocks []ContentBlock
	isText bool
}

// TextContent builds the string-shorthand form.
func TextContent(text string) MessageContent {
	return MessageContent{text: text, isText: true}
}

// BlockContent builds the block-list form.
func BlockContent(blocks ...ContentBlock) MessageContent {
	return MessageContent{blocks: blocks}
}

// IsText reports whether the content is in string-shorthand form.
func (c MessageContent) IsText() bool { return c.isText }

// Text returns the shorthand text; empty for block-list content.
func (c MessageContent) Text() string { return c.text }

// Blocks returns the block list; nil for shorthand content.
func (c MessageContent) Blocks() []ContentBlock { return c.blocks }

// AsBlocks returns the content as a block list, converting shorthand text
// into an equivalent single text block.
func (c MessageContent) AsBlocks() []ContentBlock {
	if c.isText {
		return []ContentBlock{TextBlock(c.text)}
	}
	return c.blocks
}

// MarshalJSON encodes shorthand content as a JSON string and block content
// as an array.
func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.isText {
		return json.Marshal(c.text)
	}
	return json.Marshal(c.blocks)
}

// UnmarshalJSON accepts either encoding.
func (c *MessageContent) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*c = MessageContent{text: text, isText: true}
		return nil
	}
	var blocks []ContentBlock
	if err := json.Unmarshal(data, &blocks); err != nil {
		return fmt.Errorf("decode message content: %w", err)
	}
	*c = MessageContent{blocks: blocks}
	return nil
}

// ContentBlock is a union type covering text, tool_use, tool_result,
// thinking and redacted_thinking blocks.
type ContentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
	Thinking  string          `json:"thinking,omitempty"`
	Signature string          `json:"signature,omitempty"`
	Data      string          `json:"data,omitempty"`
}

// TextBlock builds a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: blockTypeText, Text: text}
}

// ToolUseBlock builds a tool_use content block.
func ToolUseBlock(id, name string, input json.RawMessage) ContentBlock {
	return ContentBlock{Type: blockTypeToolUse, ID: id, Name: name, Input: input}
}

// ToolResultBlock builds a tool_result content block referencing the
// invoking tool_use id.
func ToolResultBlock(toolUseID, text string, isError bool) ContentBlock {
	return ContentBlock{Type: blockTypeToolResult, ToolUseID: toolUseID, Content: text, IsError: isError}
}

// ThinkingBlock builds a thinking content block.
func ThinkingBlock(text, signature string) ContentBlock {
	return ContentBlock{Type: blockTypeThinking, Thinking: text, Signature: signature}
}

// RedactedThinkingBlock builds a redacted_thinking content block around the
// provider's opaque blob.
func RedactedThinkingBlock(data string) ContentBlock {
	return ContentBlock{Type: blockTypeRedactedThinking, Data: data}
}

// IsThinking reports whether the block carries extended reasoning, redacted
// or not.
func (b ContentBlock) IsThinking() bool {
	return b.Type == blockTypeThinking || b.Type == blockTypeRedactedThinking
}

// ToolParam declares one callable tool in a request.
type ToolParam struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// ToolChoice sets the tool selection policy.
type ToolChoice struct {
	Type string `json:"type"`
}

// ThinkingConfig enables extended thinking with a token budget.
type ThinkingConfig struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens"`
}

// OutputFormat is the structured-output envelope carrying a JSON schema.
type OutputFormat struct {
	Type   string          `json:"type"`
	Schema json.RawMessage `json:"schema"`
}

// Usage records token accounting reported by the API.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// MessageResponse captures the Anthropic message schema we care about.
type MessageResponse struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Role         string         `json:"role"`
	Model        string         `json:"model"`
	Content      []ContentBlock `json:"content"`
	StopReason   string         `json:"stop_reason"`
	StopSequence string         `json:"stop_sequence"`
	Usage        Usage          `json:"usage"`
}

// MessageStartEvent contains the first chunk with message metadata.
type MessageStartEvent struct {
	Type    string          `json:"type"`
	Message MessageResponse `json:"message"`
}

// ContentBlockStartEvent opens one content block at an index.
type ContentBlockStartEvent struct {
	Type         string       `json:"type"`
	Index        int          `json:"index"`
	ContentBlock ContentBlock `json:"content_block"`
}

// ContentBlockDeltaEvent yields incremental block content.
type ContentBlockDeltaEvent struct {
	Type  string     `json:"type"`
	Index int        `json:"index"`
	Delta BlockDelta `json:"delta"`
}

// BlockDelta is a union over text_delta, input_json_delta, thinking_delta
// and signature_delta payloads.
type BlockDelta struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
	Thinking    string `json:"thinking,omitempty"`
	Signature   string `json:"signature,omitempty"`
}

// ContentBlockStopEvent closes the block at an index.
type ContentBlockStopEvent struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// MessageDeltaEvent communicates terminal metadata such as stop reasons.
type MessageDeltaEvent struct {
	Type  string       `json:"type"`
	Delta MessageDelta `json:"delta"`
	Usage Usage        `json:"usage"`
}

// MessageDelta carries stop details.
type MessageDelta struct {
	StopReason   *string `json:"stop_reason"`
	StopSequence *string `json:"stop_sequence"`
}

// ErrorEvent aborts an in-flight stream with a provider error.
type ErrorEvent struct {
	Type  string    `json:"type"`
	Error ErrorBody `json:"error"`
}
