package kb

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mweint/ragger/core/pipeline"
	"github.com/mweint/ragger/helper"
	"github.com/mweint/ragger/model"
)

// DefaultSourceLabel is used for snippets without a source attribution line.
const DefaultSourceLabel = "NEA Waste Statistics Report"

var (
	titleRegex  = regexp.MustCompile(`(?m)^# (.+)$`)
	sourceRegex = regexp.MustCompile(`(?m)^\*Source: (.+)\*$`)
)

// Snippet is one parsed markdown knowledge base snippet.
type Snippet struct {
	Name   string
	Title  string
	Text   string
	Source string
	Kind   model.Kind
}

// KindFromName derives the chunk kind from a snippet filename prefix, per
// the knowledge base naming scheme.
func KindFromName(name string) model.Kind {
	switch {
	case strings.HasPrefix(name, "key_highlights"),
		strings.HasPrefix(name, "recycling_rates"),
		strings.HasPrefix(name, "waste_trends"):
		return model.KindStatistic
	case strings.HasPrefix(name, "table_"):
		return model.KindTable
	case strings.HasPrefix(name, "content_"):
		return model.KindNarrative
	case strings.HasPrefix(name, "annual_data_"):
		return model.KindAnnual
	case strings.HasPrefix(name, "metadata"):
		return model.KindMetadata
	default:
		return model.KindNarrative
	}
}

// LoadSnippets reads all *.md snippet files from dir in lexical filename
// order and parses their heading and source attribution.
func LoadSnippets(dir string) ([]*Snippet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, helper.NewError("read snippet directory", err)
	}

	var snippets []*Snippet
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, helper.NewError(fmt.Sprintf("read snippet %v", entry.Name()), err)
		}

		name := strings.TrimSuffix(entry.Name(), ".md")
		text := strings.TrimSpace(string(content))
		if text == "" {
			continue
		}

		snippet := &Snippet{
			Name:   name,
			Text:   text,
			Source: DefaultSourceLabel,
			Kind:   KindFromName(name),
		}
		if match := titleRegex.FindStringSubmatch(text); match != nil {
			snippet.Title = strings.TrimSpace(match[1])
		}
		if match := sourceRegex.FindStringSubmatch(text); match != nil {
			snippet.Source = strings.TrimSpace(match[1])
		}

		snippets = append(snippets, snippet)
	}

	if len(snippets) == 0 {
		return nil, helper.NewError("load snippets", model.ErrEmptyCorpus)
	}

	return snippets, nil
}

// LoadChunks loads all snippets from dir and splits them into chunks with
// the given splitter, defaulting to the recursive character splitter with
// the knowledge base chunking parameters. Chunk ids are "<snippet>#<index>",
// position-ordered within each snippet.
func LoadChunks(dir string, split pipeline.SplitFunc) ([]*model.Chunk, error) {
	if split == nil {
		split = pipeline.RecursiveSplitter(1000, 200)
	}

	snippets, err := LoadSnippets(dir)
	if err != nil {
		return nil, err
	}

	var chunks []*model.Chunk
	for _, snippet := range snippets {
		fragments, err := split(snippet.Text)
		if err != nil {
			return nil, helper.NewError(fmt.Sprintf("split snippet %v", snippet.Name), err)
		}

		for i, fragment := range fragments {
			chunk, err := model.NewChunk(fmt.Sprintf("%s#%d", snippet.Name, i), fragment, snippet.Source, snippet.Kind)
			if err != nil {
				return nil, err
			}
			if snippet.Title != "" {
				chunk.Metadata = model.Metadata{"title": snippet.Title}
			}
			chunks = append(chunks, chunk)
		}
	}

	if len(chunks) == 0 {
		return nil, helper.NewError("load chunks", model.ErrEmptyCorpus)
	}

	return chunks, nil
}
