package model

// QueryConfig represents configuration for a retrieval query.
// TopK and the similarity metric are configuration, not fixed behaviour.
type QueryConfig struct {
	// Vector search parameters
	TopK                int     `json:"top_k"`
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty"`

	// Display filtering
	Kinds []Kind `json:"kinds,omitempty"` // Restrict results to specific chunk kinds

	// Prompt construction
	HistoryTurns int `json:"history_turns"` // Trailing conversation turns included in the prompt
}

// DefaultQueryConfig returns a sensible default configuration
func DefaultQueryConfig() *QueryConfig {
	return &QueryConfig{
		TopK:                3,
		SimilarityThreshold: 0,
		Kinds:               nil, // All kinds
		HistoryTurns:        5,
	}
}

// GenerateOptions holds sampling parameters for the answer generator.
type GenerateOptions struct {
	Temperature   float64  `json:"temperature,omitempty"`
	TopP          float64  `json:"top_p,omitempty"`
	RepeatPenalty float64  `json:"repeat_penalty,omitempty"`
	MaxTokens     int      `json:"max_tokens,omitempty"`
	Stop          []string `json:"stop,omitempty"`
}

// DefaultGenerateOptions returns deterministic-leaning sampling parameters
// to keep hallucination variance low.
func DefaultGenerateOptions() *GenerateOptions {
	return &GenerateOptions{
		Temperature:   0.1,
		TopP:          0.9,
		RepeatPenalty: 1.1,
	}
}
