package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecursiveSplitter(t *testing.T) {
	t.Run("Short text stays in one fragment", func(t *testing.T) {
		splitter := RecursiveSplitter(1000, 200)
		text := "The recycling rate was 52% in 2023."

		fragments, err := splitter(text)

		require.NoError(t, err)
		require.Len(t, fragments, 1)
		assert.Equal(t, text, fragments[0])
	})

	t.Run("Splits on paragraph boundaries first", func(t *testing.T) {
		splitter := RecursiveSplitter(40, 0)
		text := "First paragraph about waste.\n\nSecond paragraph about recycling."

		fragments, err := splitter(text)

		require.NoError(t, err)
		require.Len(t, fragments, 2)
		assert.Contains(t, fragments[0], "First paragraph")
		assert.Contains(t, fragments[1], "Second paragraph")
	})

	t.Run("Falls back to line splitting for long paragraphs", func(t *testing.T) {
		splitter := RecursiveSplitter(30, 0)
		text := "line one about waste\nline two about recycling\nline three about disposal"

		fragments, err := splitter(text)

		require.NoError(t, err)
		assert.Greater(t, len(fragments), 1)
		for _, f := range fragments {
			assert.LessOrEqual(t, len(f), 30)
		}
	})

	t.Run("Hard cut when no separator applies", func(t *testing.T) {
		splitter := RecursiveSplitter(10, 2)
		text := strings.Repeat("a", 25)

		fragments, err := splitter(text)

		require.NoError(t, err)
		assert.Greater(t, len(fragments), 1)
		for _, f := range fragments {
			assert.LessOrEqual(t, len(f), 10)
		}
		// Adjacent fragments share the overlap
		assert.Equal(t, fragments[0][8:], fragments[1][:2])
	})

	t.Run("Deterministic for identical input", func(t *testing.T) {
		splitter := RecursiveSplitter(50, 10)
		text := "Waste generated rose.\n\nWaste recycled fell.\n\nWaste disposed of was stable over the decade."

		first, err := splitter(text)
		require.NoError(t, err)
		second, err := splitter(text)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("Empty text", func(t *testing.T) {
		splitter := RecursiveSplitter(1000, 200)

		fragments, err := splitter("")

		require.NoError(t, err)
		assert.Equal(t, 0, len(fragments))
	})

	t.Run("Text with only whitespace", func(t *testing.T) {
		splitter := RecursiveSplitter(1000, 200)

		fragments, err := splitter("   \n\t  ")

		require.NoError(t, err)
		assert.Equal(t, 0, len(fragments))
	})

	t.Run("Error with non-positive chunk size", func(t *testing.T) {
		splitter := RecursiveSplitter(0, 0)

		_, err := splitter("Some text.")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "must be positive")
	})

	t.Run("Error with overlap not smaller than chunk size", func(t *testing.T) {
		splitter := RecursiveSplitter(10, 10)

		_, err := splitter("Some text.")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "overlap")
	})
}

func TestParagraphSplitter(t *testing.T) {
	t.Run("One fragment per paragraph", func(t *testing.T) {
		splitter := ParagraphSplitter()
		text := "Paragraph one.\n\nParagraph two.\n\nParagraph three."

		fragments, err := splitter(text)

		require.NoError(t, err)
		require.Len(t, fragments, 3)
		assert.Equal(t, "Paragraph one.", fragments[0])
	})

	t.Run("Skips empty paragraphs", func(t *testing.T) {
		splitter := ParagraphSplitter()
		text := "Paragraph one.\n\n\n\n  \n\nParagraph two."

		fragments, err := splitter(text)

		require.NoError(t, err)
		assert.Len(t, fragments, 2)
	})

	t.Run("Empty text", func(t *testing.T) {
		splitter := ParagraphSplitter()

		fragments, err := splitter("")

		require.NoError(t, err)
		assert.Len(t, fragments, 0)
	})
}
