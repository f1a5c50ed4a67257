package anthropic

import (
	"encoding/json"

	"github.com/cexll/modelbridge-go/pkg/transcript"
)

// Convert folds a transcript into the Anthropic message list plus the
// extracted system prompt. The fold never mutates its input.
//
// Consecutive tool outputs accumulate into a single user message; the buffer
// is flushed before the next prompt and again at the end of the fold, so a
// tool-result message and the following prompt are never merged.
func Convert(entries []transcript.Entry) ([]MessageParam, string) {
	var (
		messages       []MessageParam
		system         string
		pendingResults []ContentBlock
		pendingCallIDs []string
	)

	flushResults := func() {
		if len(pendingResults) == 0 {
			return
		}
		messages = append(messages, MessageParam{
			Role:    "user",
			Content: BlockContent(pendingResults...),
		})
		pendingResults = nil
	}

	for _, entry := range entries {
		switch e := entry.(type) {
		case transcript.Instructions:
			if text := transcript.SegmentsText(e.Segments); text != "" {
				system = text
			}

		case transcript.Prompt:
			flushResults()
			messages = append(messages, MessageParam{
				Role:    "user",
				Content: TextContent(transcript.SegmentsText(e.Segments)),
			})

		case transcript.Response:
			messages = append(messages, MessageParam{
				Role:    "assistant",
				Content: TextContent(transcript.SegmentsText(e.Segments)),
			})

		case transcript.ToolCalls:
			blocks := make([]ContentBlock, 0, len(e.Calls))
			for _, call := range e.Calls {
				input, err := json.Marshal(call.Arguments)
				if err != nil {
					input = json.RawMessage(`{}`)
				}
				blocks = append(blocks, ToolUseBlock(call.ID, call.Name, input))
				pendingCallIDs = append(pendingCallIDs, call.ID)
			}
			messages = append(messages, MessageParam{
				Role:    "assistant",
				Content: BlockContent(blocks...),
			})

		case transcript.ToolOutput:
			// Pair with the oldest unconsumed call id. When none is queued
			// the output's own id is used as-is; the provider may reject the
			// pairing, which is deliberately not pre-validated here.
			id := e.CallID
			if len(pendingCallIDs) > 0 {
				id = pendingCallIDs[0]
				pendingCallIDs = pendingCallIDs[1:]
			}
			pendingResults = append(pendingResults, ToolResultBlock(id, transcript.SegmentsText(e.Segments), e.IsError))
		}
	}

	flushResults()
	return messages, system
}

// ActiveToolDecls returns the tool declarations of the most recent
// Instructions entry that carries any, or nil.
func ActiveToolDecls(entries []transcript.Entry) []transcript.ToolDecl {
	for i := len(entries) - 1; i >= 0; i-- {
		if instr, ok := entries[i].(transcript.Instructions); ok && len(instr.Tools) > 0 {
			return instr.Tools
		}
	}
	return nil
}

// ActiveOutputSchema returns the output schema of the most recent Prompt
// entry that carries one, or nil.
func ActiveOutputSchema(entries []transcript.Entry) json.RawMessage {
	for i := len(entries) - 1; i >= 0; i-- {
		if prompt, ok := entries[i].(transcript.Prompt); ok && len(prompt.OutputSchema) > 0 {
			return prompt.OutputSchema
		}
	}
	return nil
}

// ActiveOptions returns the generation options of the most recent Prompt
// entry that carries any, or nil.
func ActiveOptions(entries []transcript.Entry) *transcript.Options {
	for i := len(entries) - 1; i >= 0; i-- {
		if prompt, ok := entries[i].(transcript.Prompt); ok && prompt.Options != nil {
			return prompt.Options
		}
	}
	return nil
}
