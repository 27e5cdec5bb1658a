package model

import "errors"

// Pipeline errors. Callers distinguish kinds with errors.Is; none of these are
// ever swallowed on the way up.
var (
	// ErrInvalidQuestion indicates an empty or whitespace-only question.
	// Recoverable by the caller (re-prompt the user), never fatal.
	ErrInvalidQuestion = errors.New("invalid question")

	// ErrEmptyCorpus indicates an index build over zero chunks.
	// Fatal at startup; serving an empty-context pipeline is never acceptable.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrCorruptIndex indicates a persisted index that is unreadable or whose
	// embedding dimensionality does not match the configured embedder.
	// Recoverable by rebuilding from the chunk store.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrGeneratorUnavailable indicates the generation service cannot be
	// reached. Retryable by the caller; the pipeline does not retry.
	ErrGeneratorUnavailable = errors.New("generator unavailable")

	// ErrGeneratorTimeout indicates the deadline elapsed while waiting on the
	// generator. Distinct from ErrGeneratorUnavailable so callers can apply
	// different retry policies.
	ErrGeneratorTimeout = errors.New("generator timeout")
)
