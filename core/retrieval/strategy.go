package retrieval

import (
	"context"

	"github.com/mweint/ragger/model"
)

// Strategy defines a retrieval strategy.
type Strategy interface {
	Retrieve(ctx context.Context, question string, config *model.QueryConfig) ([]*model.RetrievalResult, error)
}

// VectorOnlyStrategy performs pure vector similarity search.
type VectorOnlyStrategy struct {
	engine *Engine
}

// NewVectorOnlyStrategy creates a new vector-only strategy.
func NewVectorOnlyStrategy(engine *Engine) *VectorOnlyStrategy {
	return &VectorOnlyStrategy{engine: engine}
}

// Retrieve performs vector-only retrieval.
func (s *VectorOnlyStrategy) Retrieve(ctx context.Context, question string, config *model.QueryConfig) ([]*model.RetrievalResult, error) {
	return s.engine.VectorRetrieve(ctx, question, config)
}

// FilteredStrategy restricts vector similarity search to fixed chunk kinds,
// e.g. statistics only for numeric questions.
type FilteredStrategy struct {
	engine *Engine
	kinds  []model.Kind
}

// NewFilteredStrategy creates a strategy that only retrieves the given kinds.
func NewFilteredStrategy(engine *Engine, kinds ...model.Kind) *FilteredStrategy {
	return &FilteredStrategy{engine: engine, kinds: kinds}
}

// Retrieve performs vector retrieval over the configured kinds. The caller's
// config is not mutated.
func (s *FilteredStrategy) Retrieve(ctx context.Context, question string, config *model.QueryConfig) ([]*model.RetrievalResult, error) {
	if config == nil {
		config = model.DefaultQueryConfig()
	}
	filtered := *config
	filtered.Kinds = s.kinds
	return s.engine.VectorRetrieve(ctx, question, &filtered)
}
