package model

import (
	"context"

	"github.com/cexll/modelbridge-go/pkg/transcript"
)

// Model bridges a provider-agnostic transcript to one concrete backend. A
// call consumes the whole transcript and yields the entries the provider
// produced for the next turn.
type Model interface {
	// Generate performs a blocking call and returns the produced entries.
	Generate(ctx context.Context, t *transcript.Transcript) ([]transcript.Entry, error)

	// GenerateStream performs a streaming call, relaying reconstructed
	// entries into cb as they become available.
	GenerateStream(ctx context.Context, t *transcript.Transcript, cb StreamCallback) error
}

// StreamResult is one unit delivered by a streaming call. Non-final text
// entries are provisional: each carries the full text reconstructed so far,
// and a later result supersedes it.
type StreamResult struct {
	Entry transcript.Entry
	Final bool
}

// StreamCallback receives stream results in arrival order. Returning an
// error aborts the stream.
type StreamCallback func(StreamResult) error
