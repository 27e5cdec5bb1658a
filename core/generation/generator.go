package generation

import (
	"context"

	"github.com/mweint/ragger/model"
)

// Generator produces answer text from a fully assembled prompt. Generation
// failures come back as the model sentinel errors so callers can distinguish
// an unreachable backend from an expired deadline.
type Generator interface {
	// Generate produces the completion for prompt. Options may be nil, in
	// which case the generator's defaults apply.
	Generate(ctx context.Context, prompt string, options *model.GenerateOptions) (string, error)
	// Ping checks that the backend is reachable and the model is available.
	Ping(ctx context.Context) error
	// ModelName returns the name of the underlying model.
	ModelName() string
}
