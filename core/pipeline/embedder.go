package pipeline

import (
	"fmt"
	"math"

	"github.com/knights-analytics/hugot"
	"github.com/mweint/ragger/helper"
)

// EmbeddingModel is the local sentence transformer used by DefaultEmbedder.
const EmbeddingModel = "sentence-transformers/all-MiniLM-L6-v2"

// EmbeddingDimensions is the vector size produced by EmbeddingModel.
const EmbeddingDimensions = 384

// DefaultEmbedder creates an embedder running EmbeddingModel locally through
// hugot. Vectors are L2-normalized so cosine similarity reduces to a dot
// product over the stored vectors.
func DefaultEmbedder() (EmbedFunc, error) {
	// Prepare model (download if needed)
	modelPath, err := helper.PrepareModel(EmbeddingModel, "onnx/model.onnx")
	if err != nil {
		return nil, err
	}

	// Initialize hugot session with Go backend
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedder-pipeline",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	return func(text string) ([]float32, error) {
		result, err := sentencePipeline.RunPipeline([]string{text})
		if err != nil {
			return nil, fmt.Errorf("failed to generate embedding: %w", err)
		}

		if len(result.Embeddings) == 0 {
			return nil, fmt.Errorf("no embedding generated")
		}

		return Normalize(result.Embeddings[0]), nil
	}, nil
}

// Normalize scales a vector to unit length. Zero vectors are returned as-is.
func Normalize(v []float32) []float32 {
	var norm float32
	for _, x := range v {
		norm += x * x
	}
	if norm == 0 {
		return v
	}
	scale := float32(1 / math.Sqrt(float64(norm)))
	normalized := make([]float32, len(v))
	for i, x := range v {
		normalized[i] = x * scale
	}
	return normalized
}

// CosineSimilarity calculates the cosine similarity between two vectors.
// Mismatched or zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float32
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return float64(dotProduct) / (math.Sqrt(float64(normA)) * math.Sqrt(float64(normB)))
}
