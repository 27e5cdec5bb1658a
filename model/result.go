package model

// RetrievalResult represents a chunk retrieved by a query
type RetrievalResult struct {
	Chunk *Chunk  `json:"chunk"`
	Score float64 `json:"score"` // Cosine similarity, higher = more similar
}
