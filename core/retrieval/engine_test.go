package retrieval

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mweint/ragger/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testVocab = []string{
	"in", "the", "overall", "recycling", "rate", "was", "percent", "what",
	"2022", "2023", "waste", "generated", "tonnes",
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEngine(wordEmbedder(testVocab), len(testVocab), logger)
}

func testChunks(t *testing.T) []*model.Chunk {
	t.Helper()
	texts := map[string]string{
		"rate-2022":  "In 2022, the overall recycling rate was 57 percent.",
		"rate-2023":  "In 2023, the overall recycling rate was 52 percent.",
		"waste-2023": "In 2023, the waste generated was 6.86 million tonnes.",
	}
	var chunks []*model.Chunk
	for id, text := range texts {
		chunk, err := model.NewChunk(id, text, "test corpus", model.KindAnnual)
		require.NoError(t, err)
		chunks = append(chunks, chunk)
	}
	return chunks
}

func TestEngineRebuild(t *testing.T) {
	t.Run("Retrieve before first rebuild fails with empty corpus", func(t *testing.T) {
		engine := newTestEngine(t)

		results, err := engine.VectorRetrieve(context.Background(), "What was the recycling rate in 2023?", nil)

		assert.ErrorIs(t, err, model.ErrEmptyCorpus)
		assert.Nil(t, results)
	})

	t.Run("Rebuild embeds chunks and serves queries", func(t *testing.T) {
		engine := newTestEngine(t)

		err := engine.Rebuild(context.Background(), testChunks(t))
		require.NoError(t, err)
		require.NotNil(t, engine.Current())
		assert.Equal(t, 3, engine.Current().Size())

		results, err := engine.VectorRetrieve(context.Background(), "What was the overall recycling rate in 2023?", &model.QueryConfig{TopK: 1})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "rate-2023", results[0].Chunk.ID)
	})

	t.Run("Failed rebuild leaves current index in place", func(t *testing.T) {
		engine := newTestEngine(t)
		require.NoError(t, engine.Rebuild(context.Background(), testChunks(t)))
		before := engine.Current()

		err := engine.Rebuild(context.Background(), nil)

		assert.ErrorIs(t, err, model.ErrEmptyCorpus)
		assert.Same(t, before, engine.Current())
	})

	t.Run("Cancelled context aborts rebuild", func(t *testing.T) {
		engine := newTestEngine(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := engine.Rebuild(ctx, testChunks(t))

		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, engine.Current())
	})

	t.Run("Swap rejects mismatched dimensions", func(t *testing.T) {
		engine := newTestEngine(t)
		index, err := BuildIndex([]*model.Chunk{
			embeddedChunk(t, "a", "two dims", model.KindNarrative, []float32{1, 0}),
		})
		require.NoError(t, err)

		_, err = engine.Swap(index)

		assert.ErrorContains(t, err, "dimensions")
		assert.Nil(t, engine.Current())
	})
}

func TestEngineConcurrentSwap(t *testing.T) {
	engine := newTestEngine(t)
	require.NoError(t, engine.Rebuild(context.Background(), testChunks(t)))

	done := make(chan struct{})
	var wg sync.WaitGroup

	// Readers must always see a complete index while rebuilds swap it out.
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				results, err := engine.VectorRetrieve(context.Background(), "What was the overall recycling rate in 2023?", &model.QueryConfig{TopK: 3})
				assert.NoError(t, err)
				assert.Len(t, results, 3)
			}
		}()
	}

	for i := 0; i < 25; i++ {
		require.NoError(t, engine.Rebuild(context.Background(), testChunks(t)))
		time.Sleep(time.Millisecond)
	}
	close(done)
	wg.Wait()
}

func TestEngineSaveLoadIndex(t *testing.T) {
	t.Run("Save before first rebuild fails with empty corpus", func(t *testing.T) {
		engine := newTestEngine(t)

		err := engine.SaveIndex(filepath.Join(t.TempDir(), "index.bin"))

		assert.ErrorIs(t, err, model.ErrEmptyCorpus)
	})

	t.Run("Round trip through a fresh engine preserves retrieval", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "index.bin")

		engine := newTestEngine(t)
		require.NoError(t, engine.Rebuild(context.Background(), testChunks(t)))
		require.NoError(t, engine.SaveIndex(path))

		restored := newTestEngine(t)
		require.NoError(t, restored.LoadIndex(path))

		question := "What was the overall recycling rate in 2023?"
		original, err := engine.VectorRetrieve(context.Background(), question, &model.QueryConfig{TopK: 3})
		require.NoError(t, err)
		loaded, err := restored.VectorRetrieve(context.Background(), question, &model.QueryConfig{TopK: 3})
		require.NoError(t, err)

		require.Equal(t, len(original), len(loaded))
		for i := range original {
			assert.Equal(t, original[i].Chunk.ID, loaded[i].Chunk.ID)
			assert.Equal(t, original[i].Score, loaded[i].Score)
		}
	})

	t.Run("Snapshot with wrong dimensions fails with corrupt index error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "index.bin")

		index, err := BuildIndex([]*model.Chunk{
			embeddedChunk(t, "a", "two dims", model.KindNarrative, []float32{1, 0}),
		})
		require.NoError(t, err)
		require.NoError(t, index.Persist(path))

		engine := newTestEngine(t)
		err = engine.LoadIndex(path)

		assert.ErrorIs(t, err, model.ErrCorruptIndex)
		assert.Nil(t, engine.Current())
	})
}

func TestEngineEmbedFailure(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	failing := func(text string) ([]float32, error) {
		return nil, fmt.Errorf("model unavailable")
	}
	engine := NewEngine(failing, len(testVocab), logger)

	err := engine.Rebuild(context.Background(), testChunks(t))

	assert.ErrorContains(t, err, "model unavailable")
	assert.Nil(t, engine.Current())
}
