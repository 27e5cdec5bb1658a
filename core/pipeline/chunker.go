package pipeline

import (
	"fmt"
	"strings"
)

// defaultSeparators is the separator cascade for RecursiveSplitter, coarsest
// first. The empty separator is the hard-cut fallback.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveSplitter creates a splitter that cuts text along a separator
// cascade (paragraphs, then lines, then words) into fragments of at most
// maxChunkSize characters, with overlap characters carried between adjacent
// fragments. Splitting is deterministic for identical input.
func RecursiveSplitter(maxChunkSize, overlap int) SplitFunc {
	return func(text string) ([]string, error) {
		if maxChunkSize <= 0 {
			return nil, fmt.Errorf("max chunk size must be positive")
		}
		if overlap < 0 || overlap >= maxChunkSize {
			return nil, fmt.Errorf("overlap must be non-negative and smaller than max chunk size")
		}

		if strings.TrimSpace(text) == "" {
			return []string{}, nil
		}

		return splitRecursive(text, defaultSeparators, maxChunkSize, overlap), nil
	}
}

// splitRecursive splits text with the first separator that applies and merges
// the parts back into fragments within the size limit. Oversized parts are
// re-split with the finer separators.
func splitRecursive(text string, separators []string, maxChunkSize, overlap int) []string {
	if len(text) <= maxChunkSize {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}

	separator := separators[len(separators)-1]
	var finer []string
	for i, sep := range separators {
		if sep == "" || strings.Contains(text, sep) {
			separator = sep
			finer = separators[i+1:]
			break
		}
	}

	if separator == "" {
		return hardCut(text, maxChunkSize, overlap)
	}

	parts := strings.Split(text, separator)
	var fragments []string
	var current []string
	currentLen := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		fragment := strings.Join(current, separator)
		if strings.TrimSpace(fragment) != "" {
			fragments = append(fragments, fragment)
		}
		// Carry trailing parts up to the overlap budget into the next fragment.
		var carried []string
		carriedLen := 0
		for i := len(current) - 1; i >= 0 && carriedLen+len(current[i]) <= overlap; i-- {
			carried = append([]string{current[i]}, carried...)
			carriedLen += len(current[i]) + len(separator)
		}
		current = carried
		currentLen = carriedLen
	}

	for _, part := range parts {
		if len(part) > maxChunkSize {
			flush()
			current = nil
			currentLen = 0
			fragments = append(fragments, splitRecursive(part, finer, maxChunkSize, overlap)...)
			continue
		}
		if currentLen+len(part)+len(separator) > maxChunkSize {
			flush()
			// Drop the carried overlap when it would push past the limit.
			if currentLen+len(part)+len(separator) > maxChunkSize {
				current = nil
				currentLen = 0
			}
		}
		current = append(current, part)
		currentLen += len(part) + len(separator)
	}
	flush()

	return fragments
}

// hardCut slices text at fixed positions when no separator applies.
func hardCut(text string, maxChunkSize, overlap int) []string {
	var fragments []string
	step := maxChunkSize - overlap
	for start := 0; start < len(text); start += step {
		end := start + maxChunkSize
		if end > len(text) {
			end = len(text)
		}
		fragments = append(fragments, text[start:end])
		if end == len(text) {
			break
		}
	}
	return fragments
}

// ParagraphSplitter creates a splitter that cuts text on blank lines, one
// fragment per paragraph.
func ParagraphSplitter() SplitFunc {
	return func(text string) ([]string, error) {
		paragraphs := strings.Split(text, "\n\n")

		fragments := make([]string, 0, len(paragraphs))
		for _, para := range paragraphs {
			para = strings.TrimSpace(para)
			if para == "" {
				continue
			}
			fragments = append(fragments, para)
		}

		return fragments, nil
	}
}
