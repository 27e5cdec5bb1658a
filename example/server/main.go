package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mweint/ragger"
	"github.com/mweint/ragger/core/generation"
	"github.com/mweint/ragger/core/pipeline"
	"github.com/mweint/ragger/server"
)

// HTTP question answering service over a generated knowledge base.
// Configuration comes from the environment (or a .env file):
//
//	KB_DIR       knowledge base snippets directory (default kb/snippets)
//	PORT         listen port (default 8000)
//	OLLAMA_URL   Ollama base URL (default http://localhost:11434)
//	OLLAMA_MODEL Ollama model name (default llama3)
func main() {
	_ = godotenv.Load()

	kbDir := envOr("KB_DIR", "kb/snippets")
	port, err := strconv.Atoi(envOr("PORT", "8000"))
	if err != nil {
		log.Fatalf("Invalid PORT: %v", err)
	}

	generator := generation.NewOllamaGenerator(&generation.OllamaConfig{
		BaseURL: os.Getenv("OLLAMA_URL"),
		Model:   os.Getenv("OLLAMA_MODEL"),
	}, nil)

	r := ragger.NewRagger(pipeline.EmbeddingDimensions, generator)
	if err := r.UseDefaultPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	ctx := context.Background()
	numChunks, err := r.BuildFromDir(ctx, kbDir)
	if err != nil {
		log.Fatalf("Failed to build index from %s: %v", kbDir, err)
	}
	log.Printf("Indexed %d chunks from %s", numChunks, kbDir)

	config := server.DefaultConfig()
	config.Port = port

	srv, err := server.New(config, r.Asker, generator, nil)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Fatalf("Shutdown failed: %v", err)
	}
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
