package rag

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mweint/ragger/core/generation"
	"github.com/mweint/ragger/core/retrieval"
	"github.com/mweint/ragger/helper"
	"github.com/mweint/ragger/model"
)

// Asker runs the full question answering pipeline: retrieve context for the
// question, build a prompt and generate an answer grounded in the retrieved
// chunks. An Asker is stateless across calls; conversation history is passed
// in per call and never modified.
type Asker struct {
	strategy  retrieval.Strategy
	generator generation.Generator
	options   *model.GenerateOptions
	logger    *slog.Logger
}

// NewAsker creates a new Asker. Nil options fall back to the deterministic
// leaning generation defaults.
func NewAsker(strategy retrieval.Strategy, generator generation.Generator, options *model.GenerateOptions, logger *slog.Logger) *Asker {
	if options == nil {
		options = model.DefaultGenerateOptions()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Asker{
		strategy:  strategy,
		generator: generator,
		options:   options,
		logger:    logger,
	}
}

// Ask answers a question against the current corpus. A blank question fails
// with ErrInvalidQuestion before anything reaches the generator. On any
// error the returned answer is nil; there are no partial answers and no
// internal retries. The answer's sources are exactly the retrieved chunks in
// retrieval order.
func (a *Asker) Ask(ctx context.Context, question string, history []model.Turn, config *model.QueryConfig) (*model.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, helper.NewError("ask", model.ErrInvalidQuestion)
	}
	if config == nil {
		config = model.DefaultQueryConfig()
	}

	start := time.Now()
	results, err := a.strategy.Retrieve(ctx, question, config)
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(question, results, history, config.HistoryTurns)
	text, err := a.generator.Generate(ctx, prompt, a.options)
	if err != nil {
		return nil, err
	}

	answer := &model.Answer{
		Text:     strings.TrimSpace(text),
		Sources:  make([]string, len(results)),
		ChunkIDs: make([]string, len(results)),
	}
	for i, result := range results {
		answer.Sources[i] = result.Chunk.Source
		answer.ChunkIDs[i] = result.Chunk.ID
	}

	a.logger.Debug("question answered",
		slog.Int("retrieved", len(results)),
		slog.Duration("duration", time.Since(start)))

	return answer, nil
}
