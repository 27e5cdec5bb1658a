package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/mweint/ragger/core/pipeline"
	"github.com/mweint/ragger/helper"
	"github.com/mweint/ragger/model"
)

// Engine serves similarity queries against the current index and manages
// index replacement. Queries read the index through an atomic pointer, so a
// rebuild never blocks readers: in-flight queries finish against the index
// they started with while later queries see the replacement.
type Engine struct {
	embed      pipeline.EmbedFunc
	dimensions int
	index      atomic.Pointer[Index]
	logger     *slog.Logger
}

// NewEngine creates a new retrieval engine. The embedder is used for query
// embedding and for rebuilds over chunks without embeddings. Dimensions
// guards index swaps and loads against incompatible vectors.
func NewEngine(embed pipeline.EmbedFunc, dimensions int, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		embed:      embed,
		dimensions: dimensions,
		logger:     logger,
	}
}

// Current returns the index queries run against right now, or nil before the
// first rebuild.
func (e *Engine) Current() *Index {
	return e.index.Load()
}

// Swap replaces the current index and returns the previous one. The new
// index must match the engine's dimensionality.
func (e *Engine) Swap(index *Index) (*Index, error) {
	if index != nil && e.dimensions > 0 && index.Dimensions() != e.dimensions {
		return nil, fmt.Errorf("index has %v dimensions, engine expects %v", index.Dimensions(), e.dimensions)
	}
	old := e.index.Swap(index)
	if index != nil {
		e.logger.Info("index swapped", slog.Int("chunks", index.Size()))
	}
	return old, nil
}

// Rebuild embeds chunks that carry no embedding yet, builds a replacement
// index off to the side and swaps it in. On any error the current index
// stays in place untouched.
func (e *Engine) Rebuild(ctx context.Context, chunks []*model.Chunk) error {
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(chunk.Embedding) > 0 {
			continue
		}
		embedding, err := e.embed(chunk.Text)
		if err != nil {
			return helper.NewError(fmt.Sprintf("embed chunk %v", chunk.ID), err)
		}
		chunk.Embedding = embedding
	}

	index, err := BuildIndex(chunks)
	if err != nil {
		return err
	}

	_, err = e.Swap(index)
	return err
}

// VectorRetrieve embeds the question and runs a similarity query against the
// current index.
func (e *Engine) VectorRetrieve(ctx context.Context, question string, config *model.QueryConfig) ([]*model.RetrievalResult, error) {
	index := e.Current()
	if index == nil || index.Size() == 0 {
		return nil, helper.NewError("retrieve", model.ErrEmptyCorpus)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	embedding, err := e.embed(question)
	if err != nil {
		return nil, helper.NewError("embed question", err)
	}

	return index.Search(embedding, config)
}

// SaveIndex persists the current index to path.
func (e *Engine) SaveIndex(path string) error {
	index := e.Current()
	if index == nil {
		return helper.NewError("save index", model.ErrEmptyCorpus)
	}
	return index.Persist(path)
}

// LoadIndex loads a persisted index from path and swaps it in. A snapshot
// with the wrong dimensionality fails with ErrCorruptIndex.
func (e *Engine) LoadIndex(path string) error {
	index, err := LoadIndex(path)
	if err != nil {
		return err
	}
	if e.dimensions > 0 && index.Dimensions() != e.dimensions {
		return fmt.Errorf("index %v has %v dimensions, engine expects %v: %w", path, index.Dimensions(), e.dimensions, model.ErrCorruptIndex)
	}
	_, err = e.Swap(index)
	return err
}
