package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	modelpkg "github.com/cexll/modelbridge-go/pkg/model"
	"github.com/cexll/modelbridge-go/pkg/schema"
	"github.com/cexll/modelbridge-go/pkg/transcript"
)

// Ensure AnthropicModel implements the Model interface.
var _ modelpkg.Model = (*AnthropicModel)(nil)

// AnthropicModel bridges transcripts to Anthropic's Messages API. Each
// instance owns one ThinkingStore, so one model handle serves one
// conversational session when extended thinking is enabled.
type AnthropicModel struct {
	client   *http.Client
	baseURL  string
	model    string
	headers  map[string]string
	opts     modelOptions
	thinking *ThinkingStore
}

// Generate performs a blocking Messages API call and maps the response into
// transcript entries.
func (m *AnthropicModel) Generate(ctx context.Context, t *transcript.Transcript) ([]transcript.Entry, error) {
	payload, extra, guide, err := m.buildPayload(t, false)
	if err != nil {
		return nil, err
	}
	resp, err := m.doRequest(ctx, payload, extra)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, readAPIError(resp)
	}

	var msgResp MessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&msgResp); err != nil {
		return nil, fmt.Errorf("decode anthropic response: %w", err)
	}

	return m.convertResponse(msgResp, guide), nil
}

// GenerateStream invokes the streaming endpoint (SSE) and relays
// reconstructed entries into cb. Text entries are provisional until the
// final result; see Reconstructor.
func (m *AnthropicModel) GenerateStream(ctx context.Context, t *transcript.Transcript, cb modelpkg.StreamCallback) error {
	if cb == nil {
		return errors.New("anthropic stream callback is required")
	}

	payload, extra, guide, err := m.buildPayload(t, true)
	if err != nil {
		return err
	}
	resp, err := m.doRequest(ctx, payload, extra)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return readAPIError(resp)
	}

	rec := NewReconstructor(guide, m.thinking)
	relay := func(entries []transcript.Entry) error {
		for _, entry := range entries {
			if err := cb(modelpkg.StreamResult{Entry: entry, Final: rec.Done()}); err != nil {
				return err
			}
		}
		return nil
	}

	streamErr := consumeSSE(ctx, resp.Body, func(_ string, data string) error {
		data = strings.TrimSpace(data)
		if data == "" {
			return nil
		}
		entries, err := rec.Feed([]byte(data))
		if err != nil {
			return err
		}
		return relay(entries)
	})
	if streamErr != nil {
		return streamErr
	}

	if !rec.Done() {
		// The connection closed without message_stop; finalize what was
		// accumulated so the caller still receives a terminal entry.
		return relay(rec.finish())
	}
	return nil
}

func (m *AnthropicModel) buildPayload(t *transcript.Transcript, stream bool) (MessageRequest, map[string]string, *schema.Guide, error) {
	var entries []transcript.Entry
	if t != nil {
		entries = t.Entries()
	}

	req, headers, guide, err := BuildRequest(entries, BuildParams{
		ModelID:          m.model,
		Options:          m.opts.callerOptions(),
		DefaultMaxTokens: m.opts.MaxTokens,
		ThinkingBudget:   m.opts.ThinkingBudget,
		Thinking:         m.thinking.Take(),
		Stream:           stream,
		Metadata:         m.opts.Metadata,
	})
	if err != nil {
		return MessageRequest{}, nil, nil, err
	}

	if m.opts.System != "" {
		if req.System != "" {
			req.System = req.System + "\n\n" + m.opts.System
		} else {
			req.System = m.opts.System
		}
	}
	return req, headers, guide, nil
}

func (m *AnthropicModel) doRequest(ctx context.Context, payload MessageRequest, extraHeaders map[string]string) (*http.Response, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("encode anthropic request: %w", err)
	}

	endpoint := m.baseURL + messagesPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("create anthropic request: %w", err)
	}

	for k, v := range m.headers {
		if v == "" {
			continue
		}
		req.Header.Set(k, v)
	}
	for k, v := range extraHeaders {
		if v == "" {
			continue
		}
		req.Header.Set(k, v)
	}

	return m.client.Do(req)
}

// convertResponse maps a complete response into transcript entries and
// feeds the continuity store when a tool-using turn carried thinking.
func (m *AnthropicModel) convertResponse(resp MessageResponse, guide *schema.Guide) []transcript.Entry {
	var text strings.Builder
	var calls []transcript.ToolCall
	for _, block := range resp.Content {
		switch block.Type {
		case blockTypeText:
			text.WriteString(block.Text)
		case blockTypeToolUse:
			calls = append(calls, transcript.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: parseCallArgs(block.Input),
			})
		}
	}

	var entries []transcript.Entry
	if full := text.String(); full != "" {
		entries = append(entries, textOrStructured(full, guide))
	}
	if len(calls) > 0 {
		m.thinking.StoreFromResponse(resp.Content)
		entries = append(entries, transcript.ToolCalls{Calls: calls})
	}
	if len(entries) == 0 {
		entries = append(entries, transcript.TextResponse(""))
	}
	return entries
}

func textOrStructured(text string, guide *schema.Guide) transcript.Entry {
	if guide == nil {
		return transcript.TextResponse(text)
	}
	var raw any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return transcript.TextResponse(text)
	}
	return transcript.DataResponse(schema.Normalize(raw, guide))
}
