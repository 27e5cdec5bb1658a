package retrieval

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/mweint/ragger/core/pipeline"
	"github.com/mweint/ragger/helper"
	"github.com/mweint/ragger/model"
)

// Index is an immutable in-memory similarity index over embedded chunks.
// An Index is never mutated after construction, so concurrent reads need
// no locking. Replacing a corpus means building a new Index and swapping
// it in through the Engine.
type Index struct {
	dimensions int
	chunks     []*model.Chunk
}

// BuildIndex constructs an index from embedded chunks. All chunks must carry
// an embedding of the same dimensionality and ids must be unique.
func BuildIndex(chunks []*model.Chunk) (*Index, error) {
	if len(chunks) == 0 {
		return nil, helper.NewError("build index", model.ErrEmptyCorpus)
	}

	dimensions := len(chunks[0].Embedding)
	if dimensions == 0 {
		return nil, fmt.Errorf("chunk %s has no embedding", chunks[0].ID)
	}

	seen := make(map[string]bool, len(chunks))
	indexed := make([]*model.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if err := chunk.Validate(); err != nil {
			return nil, err
		}
		if seen[chunk.ID] {
			return nil, fmt.Errorf("duplicate chunk id %s", chunk.ID)
		}
		seen[chunk.ID] = true

		if len(chunk.Embedding) != dimensions {
			return nil, fmt.Errorf("chunk %s has %v dimensions, index has %v", chunk.ID, len(chunk.Embedding), dimensions)
		}
		indexed = append(indexed, chunk)
	}

	// Stored in ascending id order so equal scores resolve deterministically.
	sort.Slice(indexed, func(i, j int) bool {
		return indexed[i].ID < indexed[j].ID
	})

	return &Index{
		dimensions: dimensions,
		chunks:     indexed,
	}, nil
}

// Search scores every chunk against the query embedding by cosine similarity
// and returns the top results by descending score, ties broken by ascending
// chunk id. Identical inputs always produce identical results.
func (x *Index) Search(embedding []float32, config *model.QueryConfig) ([]*model.RetrievalResult, error) {
	if config == nil {
		config = model.DefaultQueryConfig()
	}
	if len(embedding) != x.dimensions {
		return nil, fmt.Errorf("query embedding has %v dimensions, index has %v", len(embedding), x.dimensions)
	}

	results := make([]*model.RetrievalResult, 0, len(x.chunks))
	for _, chunk := range x.chunks {
		if !matchesKinds(chunk.Kind, config.Kinds) {
			continue
		}

		score := pipeline.CosineSimilarity(embedding, chunk.Embedding)
		if config.SimilarityThreshold > 0 && score < config.SimilarityThreshold {
			continue
		}

		results = append(results, &model.RetrievalResult{
			Chunk: chunk,
			Score: score,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})

	topK := config.TopK
	if topK <= 0 {
		topK = model.DefaultQueryConfig().TopK
	}
	if len(results) > topK {
		results = results[:topK]
	}

	return results, nil
}

// Size returns the number of indexed chunks.
func (x *Index) Size() int {
	return len(x.chunks)
}

// Dimensions returns the embedding dimensionality of the index.
func (x *Index) Dimensions() int {
	return x.dimensions
}

// Chunks returns the indexed chunks in ascending id order.
func (x *Index) Chunks() []*model.Chunk {
	chunks := make([]*model.Chunk, len(x.chunks))
	copy(chunks, x.chunks)
	return chunks
}

func matchesKinds(kind model.Kind, kinds []model.Kind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		if kind == k {
			return true
		}
	}
	return false
}

// vectorBlob is the gob-encoded payload written to the index file. Chunk
// metadata lives in a JSON sidecar next to it so it stays inspectable.
type vectorBlob struct {
	Dimensions int
	ChunkIDs   []string
	Vectors    [][]float32
}

// chunkMeta is a chunk without its embedding, stored in the sidecar.
type chunkMeta struct {
	ID        string         `json:"id"`
	Text      string         `json:"text"`
	Source    string         `json:"source"`
	Kind      model.Kind     `json:"kind"`
	Metadata  model.Metadata `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func metaPath(path string) string {
	return path + ".meta.json"
}

// Persist writes the index to path as a gob vector blob plus a JSON metadata
// sidecar at path+".meta.json".
func (x *Index) Persist(path string) error {
	blob := vectorBlob{
		Dimensions: x.dimensions,
		ChunkIDs:   make([]string, len(x.chunks)),
		Vectors:    make([][]float32, len(x.chunks)),
	}
	meta := make([]chunkMeta, len(x.chunks))
	for i, chunk := range x.chunks {
		blob.ChunkIDs[i] = chunk.ID
		blob.Vectors[i] = chunk.Embedding
		meta[i] = chunkMeta{
			ID:        chunk.ID,
			Text:      chunk.Text,
			Source:    chunk.Source,
			Kind:      chunk.Kind,
			Metadata:  chunk.Metadata,
			CreatedAt: chunk.CreatedAt,
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return helper.NewError("create index file", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(blob); err != nil {
		return helper.NewError("encode index", err)
	}

	metaJson, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return helper.NewError("encode index metadata", err)
	}
	if err := os.WriteFile(metaPath(path), metaJson, 0644); err != nil {
		return helper.NewError("write index metadata", err)
	}

	return nil
}

// LoadIndex reads an index persisted with Persist. A missing file is a plain
// error. A file that cannot be decoded, disagrees with its sidecar or carries
// inconsistent dimensions fails with ErrCorruptIndex.
func LoadIndex(path string) (*Index, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, helper.NewError("open index file", err)
	}
	defer file.Close()

	var blob vectorBlob
	if err := gob.NewDecoder(file).Decode(&blob); err != nil {
		return nil, fmt.Errorf("failed to decode index %v: %w", path, model.ErrCorruptIndex)
	}
	if len(blob.ChunkIDs) != len(blob.Vectors) || len(blob.ChunkIDs) == 0 || blob.Dimensions <= 0 {
		return nil, fmt.Errorf("inconsistent index %v: %w", path, model.ErrCorruptIndex)
	}

	metaJson, err := os.ReadFile(metaPath(path))
	if err != nil {
		return nil, fmt.Errorf("missing index metadata for %v: %w", path, model.ErrCorruptIndex)
	}
	var meta []chunkMeta
	if err := json.Unmarshal(metaJson, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode index metadata for %v: %w", path, model.ErrCorruptIndex)
	}
	if len(meta) != len(blob.ChunkIDs) {
		return nil, fmt.Errorf("index metadata for %v does not match vector blob: %w", path, model.ErrCorruptIndex)
	}

	chunks := make([]*model.Chunk, len(meta))
	for i, m := range meta {
		if m.ID != blob.ChunkIDs[i] {
			return nil, fmt.Errorf("index metadata for %v does not match vector blob: %w", path, model.ErrCorruptIndex)
		}
		if len(blob.Vectors[i]) != blob.Dimensions {
			return nil, fmt.Errorf("vector %v has %v dimensions, index header says %v: %w", m.ID, len(blob.Vectors[i]), blob.Dimensions, model.ErrCorruptIndex)
		}
		chunks[i] = &model.Chunk{
			ID:        m.ID,
			Text:      m.Text,
			Source:    m.Source,
			Kind:      m.Kind,
			Metadata:  m.Metadata,
			CreatedAt: m.CreatedAt,
			Embedding: blob.Vectors[i],
		}
	}

	index, err := BuildIndex(chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild index from %v: %w", path, model.ErrCorruptIndex)
	}
	return index, nil
}
