package helper

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPrettyHandler(t *testing.T) {
	t.Run("Create PrettyHandler with default options", func(t *testing.T) {
		var buf bytes.Buffer
		handler := NewPrettyHandler(&buf, PrettyHandlerOptions{})

		require.NotNil(t, handler, "Expected NewPrettyHandler to return a non-nil handler")
		assert.NotNil(t, handler.Handler, "Expected handler to have a non-nil Handler field")
		assert.NotNil(t, handler.l, "Expected handler to have a non-nil logger field")
	})

	t.Run("Create PrettyHandler with custom level", func(t *testing.T) {
		var buf bytes.Buffer
		opts := PrettyHandlerOptions{
			SlogOpts: slog.HandlerOptions{Level: slog.LevelDebug},
		}

		handler := NewPrettyHandler(&buf, opts)
		assert.NotNil(t, handler)
	})
}

func TestPrettyHandlerHandle(t *testing.T) {
	ctx := context.Background()

	newHandler := func(level slog.Level) (*PrettyHandler, *bytes.Buffer) {
		var buf bytes.Buffer
		opts := PrettyHandlerOptions{
			SlogOpts: slog.HandlerOptions{Level: level},
		}
		return NewPrettyHandler(&buf, opts), &buf
	}

	t.Run("Handle renders level, message and attributes", func(t *testing.T) {
		handler, buf := newHandler(slog.LevelInfo)

		record := slog.NewRecord(time.Now(), slog.LevelInfo, "index swapped", 0)
		record.AddAttrs(slog.Int("chunks", 24))

		err := handler.Handle(ctx, record)

		assert.NoError(t, err)
		output := buf.String()
		assert.Contains(t, output, "INFO:", "Expected output to contain the level")
		assert.Contains(t, output, "index swapped", "Expected output to contain the message")
		assert.Contains(t, output, "chunks", "Expected output to contain the attribute key")
		assert.Contains(t, output, "24", "Expected output to contain the attribute value")
	})

	t.Run("Handle renders each level tag", func(t *testing.T) {
		for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
			handler, buf := newHandler(slog.LevelDebug)

			record := slog.NewRecord(time.Now(), level, "retrieval finished", 0)
			err := handler.Handle(ctx, record)

			assert.NoError(t, err)
			assert.Contains(t, buf.String(), level.Level().String()+":", "Expected output to contain %v tag", level)
		}
	})

	t.Run("Handle without attributes renders empty object", func(t *testing.T) {
		handler, buf := newHandler(slog.LevelInfo)

		record := slog.NewRecord(time.Now(), slog.LevelInfo, "server starting", 0)
		err := handler.Handle(ctx, record)

		assert.NoError(t, err)
		assert.Contains(t, buf.String(), "server starting")
		assert.Contains(t, buf.String(), "{}", "Expected empty JSON object for attributes")
	})

	t.Run("Handle renders a bracketed timestamp", func(t *testing.T) {
		handler, buf := newHandler(slog.LevelInfo)

		record := slog.NewRecord(time.Now(), slog.LevelInfo, "question answered", 0)
		err := handler.Handle(ctx, record)

		assert.NoError(t, err)
		assert.Regexp(t, `\[\d{2}:\d{2}:\d{2}\.\d{3}\]`, buf.String(),
			"Expected output to contain properly formatted timestamp")
	})

	t.Run("Handle renders nested attribute values", func(t *testing.T) {
		handler, buf := newHandler(slog.LevelInfo)

		record := slog.NewRecord(time.Now(), slog.LevelInfo, "snapshot persisted", 0)
		record.AddAttrs(slog.Any("metadata", map[string]interface{}{
			"source": "nea",
		}))

		err := handler.Handle(ctx, record)

		assert.NoError(t, err)
		assert.Contains(t, buf.String(), "metadata")
	})
}
