package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mweint/ragger"
	"github.com/mweint/ragger/core/generation"
	"github.com/mweint/ragger/core/pipeline"
	"github.com/mweint/ragger/model"
)

// Interactive question answering over a generated knowledge base directory.
// Run the basic example first or point -kb at an existing snippets directory.
func main() {
	kbDir := flag.String("kb", "kb/snippets", "knowledge base snippets directory")
	indexPath := flag.String("index", "", "persisted index to load instead of re-embedding")
	ollamaURL := flag.String("ollama", "", "Ollama base URL (default http://localhost:11434)")
	modelName := flag.String("model", "", "Ollama model name (default llama3)")
	flag.Parse()

	generator := generation.NewOllamaGenerator(&generation.OllamaConfig{
		BaseURL: *ollamaURL,
		Model:   *modelName,
	}, nil)

	r := ragger.NewRagger(pipeline.EmbeddingDimensions, generator)
	if err := r.UseDefaultPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	ctx := context.Background()

	if *indexPath != "" {
		if err := r.LoadIndex(*indexPath); err != nil {
			log.Fatalf("Failed to load index: %v", err)
		}
		fmt.Printf("Loaded index from %s\n", *indexPath)
	} else {
		numChunks, err := r.BuildFromDir(ctx, *kbDir)
		if err != nil {
			log.Fatalf("Failed to build index from %s: %v", *kbDir, err)
		}
		fmt.Printf("Indexed %d chunks from %s\n", numChunks, *kbDir)
	}

	if err := generator.Ping(ctx); err != nil {
		log.Fatalf("Ollama is not reachable (%v), start it with: ollama serve", err)
	}

	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	bold.Println("\nAsk about Singapore waste statistics. Type 'quit' to exit.")

	var history []model.Turn
	scanner := bufio.NewScanner(os.Stdin)
	for {
		cyan.Print("\nYou: ")
		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "quit" || question == "exit" {
			break
		}

		answer, err := r.Ask(ctx, question, history, nil)
		if err != nil {
			yellow.Printf("Error: %v\n", err)
			continue
		}

		bold.Print("Assistant: ")
		fmt.Println(answer.Text)
		if len(answer.Sources) > 0 {
			yellow.Printf("(%d sources: %s)\n", len(answer.Sources), strings.Join(answer.Sources, ", "))
		}

		history = append(history, model.Turn{Question: question, Answer: answer.Text})
	}
}
