package model

import (
	"fmt"
	"strings"
	"time"
)

// Kind categorises a chunk for display purposes. Retrieval never branches on it.
type Kind string

const (
	KindStatistic Kind = "statistic"
	KindTable     Kind = "table"
	KindNarrative Kind = "narrative"
	KindAnnual    Kind = "annual"
	KindMetadata  Kind = "metadata"
)

// Chunk is the smallest retrievable unit of knowledge: a markdown snippet
// with source attribution. Chunks are created in bulk when the knowledge base
// is regenerated and are immutable afterwards.
type Chunk struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Source    string    `json:"source"`
	Kind      Kind      `json:"kind,omitempty"`
	Embedding []float32 `json:"embedding,omitempty"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	// Result fields, populated by retrieval
	Similarity float64 `json:"similarity,omitempty"`
}

// NewChunk constructs a validated chunk. Malformed chunks are rejected here
// rather than at first use downstream.
func NewChunk(id, text, source string, kind Kind) (*Chunk, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("chunk id must not be empty")
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("chunk %s: text must not be empty", id)
	}
	return &Chunk{
		ID:       id,
		Text:     text,
		Source:   source,
		Kind:     kind,
		Metadata: Metadata{},
	}, nil
}

// Validate checks the chunk invariants on an already constructed chunk.
func (c *Chunk) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("chunk id must not be empty")
	}
	if strings.TrimSpace(c.Text) == "" {
		return fmt.Errorf("chunk %s: text must not be empty", c.ID)
	}
	return nil
}
