package ragger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode"

	"github.com/mweint/ragger/core/pipeline"
	"github.com/mweint/ragger/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var raggerVocab = []string{
	"recycling", "rate", "overall", "2023", "52", "waste",
	"generated", "tonnes", "report", "scraped",
}

// raggerEmbedder is a deterministic bag-of-words embedding over a fixed
// vocabulary, good enough to make similarity ordering predictable.
func raggerEmbedder() pipeline.EmbedFunc {
	return func(text string) ([]float32, error) {
		tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		v := make([]float32, len(raggerVocab))
		for _, token := range tokens {
			for i, word := range raggerVocab {
				if token == word {
					v[i]++
				}
			}
		}
		return pipeline.Normalize(v), nil
	}
}

type fixedGenerator struct {
	text string
}

func (g *fixedGenerator) Generate(ctx context.Context, prompt string, options *model.GenerateOptions) (string, error) {
	return g.text, nil
}

func (g *fixedGenerator) Ping(ctx context.Context) error { return nil }

func (g *fixedGenerator) ModelName() string { return "fixed" }

func writeSnippet(t *testing.T, dir, name, content string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644)
	require.NoError(t, err)
}

func newTestKB(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeSnippet(t, dir, "recycling_rates.md",
		"# Recycling Rates\n\nThe overall recycling rate in 2023 was 52 percent.\n\n*Source: NEA Waste Statistics Report*\n")
	writeSnippet(t, dir, "waste_trends.md",
		"# Waste Trends\n\nWaste generated fell to 6.86 million tonnes in 2023.\n\n*Source: NEA Waste Statistics Report*\n")
	writeSnippet(t, dir, "metadata.md",
		"# Metadata\n\nScraped from the NEA website.\n\n*Source: NEA Waste Statistics Report*\n")
	return dir
}

func newTestRagger(t *testing.T, answer string) *Ragger {
	t.Helper()
	r := NewRagger(len(raggerVocab), &fixedGenerator{text: answer})
	r.SetPipeline(pipeline.NewPipeline(pipeline.RecursiveSplitter(500, 0), raggerEmbedder()))
	return r
}

func TestRaggerWithoutPipeline(t *testing.T) {
	r := NewRagger(len(raggerVocab), &fixedGenerator{text: "answer"})
	ctx := context.Background()

	t.Run("BuildFromDir requires pipeline", func(t *testing.T) {
		_, err := r.BuildFromDir(ctx, t.TempDir())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "pipeline not set")
	})

	t.Run("Search requires pipeline", func(t *testing.T) {
		_, err := r.Search(ctx, "recycling rate", nil)
		assert.Error(t, err)
	})

	t.Run("Ask requires pipeline", func(t *testing.T) {
		_, err := r.Ask(ctx, "recycling rate", nil, nil)
		assert.Error(t, err)
	})

	t.Run("SaveIndex requires pipeline", func(t *testing.T) {
		err := r.SaveIndex(filepath.Join(t.TempDir(), "index.gob"))
		assert.Error(t, err)
	})

	t.Run("Close without database is a no-op", func(t *testing.T) {
		assert.NoError(t, r.Close())
	})
}

func TestRaggerBuildAndSearch(t *testing.T) {
	r := newTestRagger(t, "The overall recycling rate in 2023 was 52 percent.")
	ctx := context.Background()

	count, err := r.BuildFromDir(ctx, newTestKB(t))
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	t.Run("Search ranks the matching snippet first", func(t *testing.T) {
		results, err := r.Search(ctx, "overall recycling rate 2023", &model.QueryConfig{TopK: 3})
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, "recycling_rates#0", results[0].Chunk.ID)
		assert.Equal(t, model.KindStatistic, results[0].Chunk.Kind)
	})

	t.Run("Search against empty directory errors", func(t *testing.T) {
		_, err := r.BuildFromDir(ctx, t.TempDir())
		assert.Error(t, err)
	})
}

func TestRaggerAsk(t *testing.T) {
	r := newTestRagger(t, "The overall recycling rate in 2023 was 52 percent.")
	ctx := context.Background()

	_, err := r.BuildFromDir(ctx, newTestKB(t))
	require.NoError(t, err)

	t.Run("Ask returns answer with sources", func(t *testing.T) {
		answer, err := r.Ask(ctx, "What was the overall recycling rate in 2023?", nil, nil)
		require.NoError(t, err)
		require.NotNil(t, answer)
		assert.Contains(t, answer.Text, "52 percent")
		require.NotEmpty(t, answer.Sources)
		assert.Equal(t, "NEA Waste Statistics Report", answer.Sources[0])
		assert.Equal(t, "recycling_rates#0", answer.ChunkIDs[0])
	})

	t.Run("Ask rejects blank questions", func(t *testing.T) {
		_, err := r.Ask(ctx, "   ", nil, nil)
		assert.ErrorIs(t, err, model.ErrInvalidQuestion)
	})
}

func TestRaggerIndexPersistence(t *testing.T) {
	r := newTestRagger(t, "answer")
	ctx := context.Background()

	_, err := r.BuildFromDir(ctx, newTestKB(t))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "index.gob")
	require.NoError(t, r.SaveIndex(path))

	t.Run("Load restores the index into a fresh instance", func(t *testing.T) {
		fresh := newTestRagger(t, "answer")
		require.NoError(t, fresh.LoadIndex(path))

		results, err := fresh.Search(ctx, "waste generated tonnes", &model.QueryConfig{TopK: 1})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "waste_trends#0", results[0].Chunk.ID)
	})

	t.Run("Load rejects a missing file", func(t *testing.T) {
		fresh := newTestRagger(t, "answer")
		err := fresh.LoadIndex(filepath.Join(t.TempDir(), "missing.gob"))
		assert.Error(t, err)
	})
}
