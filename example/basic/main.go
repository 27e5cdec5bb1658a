package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mweint/ragger"
	"github.com/mweint/ragger/core/generation"
	"github.com/mweint/ragger/core/pipeline"
	"github.com/mweint/ragger/model"
)

// A small structured scrape of the NEA waste statistics page, the same shape
// the scraper produces.
const sampleReport = `{
  "url": "https://www.nea.gov.sg/our-services/waste-management/waste-statistics-and-overall-recycling",
  "scraped_at": "2025-07-01T12:00:00Z",
  "title": "Waste Statistics and Overall Recycling",
  "key_highlights": [
    {"metric": "Overall recycling rate", "value": "52", "unit": "%", "year": "2023"},
    {"metric": "Waste generated", "value": "6.86", "unit": "million tonnes", "year": "2023"}
  ],
  "recycling_rates": [
    {"metric": "Overall recycling rate", "value": "57", "unit": "%", "year": "2022"},
    {"metric": "Overall recycling rate", "value": "52", "unit": "%", "year": "2023"}
  ],
  "waste_trends": [
    {"metric": "Waste generated", "value": "7.39", "unit": "million tonnes", "year": "2022"},
    {"metric": "Waste generated", "value": "6.86", "unit": "million tonnes", "year": "2023"}
  ],
  "tables": [
    {
      "title": "Overall Recycling Rate by Year",
      "headers": ["Year", "Recycling Rate"],
      "rows": [["2022", "57%"], ["2023", "52%"]]
    }
  ],
  "content_sections": [
    {
      "heading": "Overview",
      "paragraphs": [
        "Singapore generated 6.86 million tonnes of solid waste in 2023, down from 7.39 million tonnes in 2022.",
        "The overall recycling rate decreased from 57 per cent to 52 per cent over the same period."
      ]
    }
  ],
  "source_label": "NEA Waste Statistics Report"
}`

func main() {
	// Write the sample report where the scraper would have left it
	workDir, err := os.MkdirTemp("", "ragger-basic")
	if err != nil {
		log.Fatalf("Failed to create work directory: %v", err)
	}
	defer os.RemoveAll(workDir)

	reportPath := filepath.Join(workDir, "report.json")
	if err := os.WriteFile(reportPath, []byte(sampleReport), 0644); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}

	generator := generation.NewOllamaGenerator(nil, nil)
	r := ragger.NewRagger(pipeline.EmbeddingDimensions, generator)

	// Default pipeline: recursive splitting + all-MiniLM-L6-v2 embeddings
	if err := r.UseDefaultPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	// Render the report into the markdown knowledge base
	kbDir := filepath.Join(workDir, "kb")
	numSnippets, err := r.GenerateKB(reportPath, kbDir)
	if err != nil {
		log.Fatalf("Failed to generate knowledge base: %v", err)
	}
	fmt.Printf("Generated %d knowledge base snippets\n", numSnippets)

	// Chunk, embed and index the snippets
	ctx := context.Background()
	numChunks, err := r.BuildFromDir(ctx, filepath.Join(kbDir, "snippets"))
	if err != nil {
		log.Fatalf("Failed to build index: %v", err)
	}
	fmt.Printf("Indexed %d chunks\n", numChunks)

	// Retrieval works without a language model
	query := "What was the overall recycling rate in 2023?"
	fmt.Printf("\nQuerying: %s\n", query)

	config := model.DefaultQueryConfig()
	config.TopK = 3

	results, err := r.Search(ctx, query, config)
	if err != nil {
		log.Fatalf("Failed to search: %v", err)
	}

	fmt.Printf("\nFound %d results:\n", len(results))
	for i, result := range results {
		fmt.Printf("\n--- Result %d ---\n", i+1)
		fmt.Printf("Score: %.4f\n", result.Score)
		fmt.Printf("Chunk: %s\n", result.Chunk.ID)
		fmt.Printf("Text: %s\n", result.Chunk.Text)
	}

	// Answer generation needs a running Ollama instance
	if err := generator.Ping(ctx); err != nil {
		fmt.Println("\nOllama is not reachable, skipping answer generation.")
		fmt.Println("Start it with: ollama serve && ollama pull llama3")
		return
	}

	answer, err := r.Ask(ctx, query, nil, nil)
	if err != nil {
		log.Fatalf("Failed to answer: %v", err)
	}

	fmt.Printf("\nAnswer: %s\n", answer.Text)
	fmt.Printf("Sources: %v\n", answer.Sources)
}
