package rag

import (
	"fmt"
	"strings"

	"github.com/mweint/ragger/model"
)

// systemInstruction pins the generator to the retrieved context. The model
// must decline rather than guess when the context does not cover a question.
const systemInstruction = `You are a helpful assistant answering questions about waste and recycling statistics.
Answer using only the provided context. If the context does not contain the information needed to answer, say so instead of guessing.
Quote figures exactly as they appear in the context.`

// BuildPrompt assembles the generation prompt: instruction, retrieved chunks
// tagged with their sources, the trailing history turns and the question.
// The history slice is read, never modified.
func BuildPrompt(question string, results []*model.RetrievalResult, history []model.Turn, historyTurns int) string {
	var prompt strings.Builder
	prompt.WriteString(systemInstruction)
	prompt.WriteString("\n\nContext:\n")

	for _, result := range results {
		fmt.Fprintf(&prompt, "\n[Source: %s]\n%s\n", result.Chunk.Source, result.Chunk.Text)
	}

	if historyTurns <= 0 {
		historyTurns = model.DefaultQueryConfig().HistoryTurns
	}
	if len(history) > historyTurns {
		history = history[len(history)-historyTurns:]
	}
	if len(history) > 0 {
		prompt.WriteString("\nConversation so far:\n")
		for _, turn := range history {
			fmt.Fprintf(&prompt, "User: %s\nAssistant: %s\n", turn.Question, turn.Answer)
		}
	}

	fmt.Fprintf(&prompt, "\nQuestion: %s\nAnswer:", question)

	return prompt.String()
}
