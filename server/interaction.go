package server

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mweint/ragger/helper"
)

// Interaction is one answered question, as a line in the interaction log.
type Interaction struct {
	Question       string    `json:"question"`
	Answer         string    `json:"answer"`
	Sources        []string  `json:"sources"`
	SessionID      string    `json:"session_id"`
	RequestID      string    `json:"request_id"`
	LatencyMs      float64   `json:"latency_ms"`
	RetrievalCount int       `json:"retrieval_count"`
	Timestamp      time.Time `json:"timestamp"`
}

// Metrics aggregates the interaction log.
type Metrics struct {
	TotalInteractions int     `json:"total_interactions"`
	AvgLatencyMs      float64 `json:"avg_latency_ms"`
	AvgRetrievalCount float64 `json:"avg_retrieval_count"`
}

// InteractionLog is an append-only JSONL log of answered questions.
type InteractionLog struct {
	mu   sync.Mutex
	path string
}

// NewInteractionLog creates a log writing to the JSONL file at path.
func NewInteractionLog(path string) *InteractionLog {
	return &InteractionLog{path: path}
}

// Append writes one interaction as a JSON line.
func (l *InteractionLog) Append(interaction *Interaction) error {
	line, err := json.Marshal(interaction)
	if err != nil {
		return helper.NewError("encode interaction", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return helper.NewError("open interaction log", err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return helper.NewError("write interaction", err)
	}
	return nil
}

// Metrics aggregates all logged interactions. A missing log file yields zero
// metrics; unparseable lines are skipped.
func (l *InteractionLog) Metrics() (*Metrics, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return &Metrics{}, nil
	}
	if err != nil {
		return nil, helper.NewError("open interaction log", err)
	}
	defer file.Close()

	metrics := &Metrics{}
	var totalLatency, totalRetrieved float64

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var interaction Interaction
		if err := json.Unmarshal([]byte(line), &interaction); err != nil {
			continue
		}
		metrics.TotalInteractions++
		totalLatency += interaction.LatencyMs
		totalRetrieved += float64(interaction.RetrievalCount)
	}
	if err := scanner.Err(); err != nil {
		return nil, helper.NewError("read interaction log", err)
	}

	if metrics.TotalInteractions > 0 {
		metrics.AvgLatencyMs = totalLatency / float64(metrics.TotalInteractions)
		metrics.AvgRetrievalCount = totalRetrieved / float64(metrics.TotalInteractions)
	}
	return metrics, nil
}
