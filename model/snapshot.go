package model

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot records one wholesale (re)generation of the knowledge base.
// Chunks always belong to exactly one snapshot; replacing the knowledge base
// means inserting a new snapshot and deleting the previous one, never a
// partial update.
type Snapshot struct {
	ID         int64     `json:"id"`
	RID        uuid.UUID `json:"rid"`
	SourceURL  string    `json:"source_url"`
	ScrapedAt  time.Time `json:"scraped_at"`
	ChunkCount int       `json:"chunk_count"`
	Metadata   Metadata  `json:"metadata,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
