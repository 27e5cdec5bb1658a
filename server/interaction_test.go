package server

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInteraction(latency float64, retrieved int) *Interaction {
	return &Interaction{
		Question:       "What was the recycling rate in 2023?",
		Answer:         "The overall recycling rate was 52%.",
		Sources:        []string{"NEA Waste Statistics Report"},
		SessionID:      "session-1",
		RequestID:      "request-1",
		LatencyMs:      latency,
		RetrievalCount: retrieved,
		Timestamp:      time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
	}
}

func TestInteractionLog(t *testing.T) {
	t.Run("Appends one JSON line per interaction", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cases.json")
		log := NewInteractionLog(path)

		require.NoError(t, log.Append(testInteraction(120.5, 3)))
		require.NoError(t, log.Append(testInteraction(80.1, 3)))

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(content)), "\n")
		require.Len(t, lines, 2)
		assert.Contains(t, lines[0], `"request_id":"request-1"`)
		assert.Contains(t, lines[0], `"latency_ms":120.5`)
	})

	t.Run("Metrics aggregate logged interactions", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cases.json")
		log := NewInteractionLog(path)
		require.NoError(t, log.Append(testInteraction(100, 3)))
		require.NoError(t, log.Append(testInteraction(200, 1)))

		metrics, err := log.Metrics()

		require.NoError(t, err)
		assert.Equal(t, 2, metrics.TotalInteractions)
		assert.InDelta(t, 150, metrics.AvgLatencyMs, 1e-9)
		assert.InDelta(t, 2, metrics.AvgRetrievalCount, 1e-9)
	})

	t.Run("Missing file yields zero metrics", func(t *testing.T) {
		log := NewInteractionLog(filepath.Join(t.TempDir(), "cases.json"))

		metrics, err := log.Metrics()

		require.NoError(t, err)
		assert.Zero(t, metrics.TotalInteractions)
		assert.Zero(t, metrics.AvgLatencyMs)
	})

	t.Run("Unparseable lines skipped", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cases.json")
		log := NewInteractionLog(path)
		require.NoError(t, log.Append(testInteraction(100, 3)))
		file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
		require.NoError(t, err)
		_, err = file.WriteString("not json\n\n")
		require.NoError(t, err)
		require.NoError(t, file.Close())
		require.NoError(t, log.Append(testInteraction(300, 3)))

		metrics, err := log.Metrics()

		require.NoError(t, err)
		assert.Equal(t, 2, metrics.TotalInteractions)
		assert.InDelta(t, 200, metrics.AvgLatencyMs, 1e-9)
	})
}
