package anthropic

import "sync"

// ThinkingStore holds thinking blocks captured from the most recent
// tool-using assistant turn until the next request consumes them. The API
// requires those blocks to be echoed verbatim ahead of the assistant's
// tool_use content on the follow-up call.
//
// One store belongs to one conversational session. Take must be atomic with
// respect to concurrent stores, hence the mutex.
type ThinkingStore struct {
	mu      sync.Mutex
	pending []ContentBlock
}

// NewThinkingStore constructs an empty store.
func NewThinkingStore() *ThinkingStore {
	return &ThinkingStore{}
}

// Take atomically returns the pending blocks and clears the store.
func (s *ThinkingStore) Take() []ContentBlock {
	s.mu.Lock()
	defer s.mu.Unlock()
	blocks := s.pending
	s.pending = nil
	return blocks
}

// StoreFromResponse filters blocks down to thinking and redacted_thinking
// and, when any remain, replaces the store's contents. An empty filtered set
// leaves the store untouched so a thinking-free turn cannot erase a pending
// set before it is consumed.
func (s *ThinkingStore) StoreFromResponse(blocks []ContentBlock) {
	var filtered []ContentBlock
	for _, b := range blocks {
		if b.IsThinking() {
			filtered = append(filtered, b)
		}
	}
	if len(filtered) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = filtered
}

// StoreDirect unconditionally replaces the store's contents. The streaming
// path uses it after doing its own filtering.
func (s *ThinkingStore) StoreDirect(blocks []ContentBlock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = blocks
}

// InjectThinking prepends blocks ahead of the last assistant message's
// content, converting text-shorthand content into an equivalent block list
// first. When no assistant message exists the input is returned unchanged.
// The function is pure: the input slice is not mutated.
func InjectThinking(blocks []ContentBlock, messages []MessageParam) []MessageParam {
	if len(blocks) == 0 {
		return messages
	}
	last := -1
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "assistant" {
			last = i
			break
		}
	}
	if last < 0 {
		return messages
	}

	out := make([]MessageParam, len(messages))
	copy(out, messages)

	existing := messages[last].Content.AsBlocks()
	merged := make([]ContentBlock, 0, len(blocks)+len(existing))
	merged = append(merged, blocks...)
	merged = append(merged, existing...)
	out[last].Content = BlockContent(merged...)
	return out
}
