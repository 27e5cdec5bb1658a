package pipeline

import (
	"fmt"

	"github.com/mweint/ragger/model"
)

// SplitFunc is a function that splits raw text into ordered fragments.
// Fragment order must be deterministic for identical input.
type SplitFunc func(text string) ([]string, error)

// EmbedFunc is a function that generates a fixed-length embedding for text.
// For a fixed model the output must be deterministic.
type EmbedFunc func(text string) ([]float32, error)

// Pipeline combines splitting and embedding into chunk production.
type Pipeline struct {
	Splitter SplitFunc
	Embedder EmbedFunc
}

// NewPipeline creates a new processing pipeline
func NewPipeline(splitter SplitFunc, embedder EmbedFunc) *Pipeline {
	return &Pipeline{
		Splitter: splitter,
		Embedder: embedder,
	}
}

// Process splits text into fragments and embeds each one, producing chunks
// with ids of the form "<baseID>#<index>". Source and kind are propagated to
// every chunk.
func (p *Pipeline) Process(text, baseID, source string, kind model.Kind) ([]*model.Chunk, error) {
	fragments, err := p.Splitter(text)
	if err != nil {
		return nil, err
	}

	chunks := make([]*model.Chunk, 0, len(fragments))
	for i, fragment := range fragments {
		chunk, err := model.NewChunk(fmt.Sprintf("%s#%d", baseID, i), fragment, source, kind)
		if err != nil {
			return nil, err
		}

		if p.Embedder != nil {
			embedding, err := p.Embedder(fragment)
			if err != nil {
				return nil, err
			}
			chunk.Embedding = embedding
		}

		chunks = append(chunks, chunk)
	}

	return chunks, nil
}
