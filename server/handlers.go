package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mweint/ragger/model"
)

type askRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
	TopK      int    `json:"k"`
}

type askResponse struct {
	Question       string    `json:"question"`
	Answer         string    `json:"answer"`
	Sources        []string  `json:"sources"`
	SessionID      string    `json:"session_id"`
	RequestID      string    `json:"request_id"`
	LatencyMs      float64   `json:"latency_ms"`
	RetrievalCount int       `json:"retrieval_count"`
	Timestamp      time.Time `json:"timestamp"`
}

// testQuestions are the canned evaluation questions served by /api/questions.
var testQuestions = []string{
	"What is the total waste generated in Singapore in 2023?",
	"How much of the waste was recycled in 2023?",
	"What are the key highlights of waste management in Singapore?",
	"What is the recycling rate for different waste streams?",
	"How has waste generation changed over the years?",
}

func (s *Server) handleAsk(c *gin.Context) {
	var request askRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sessionID := request.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	requestID := uuid.NewString()

	config := model.DefaultQueryConfig()
	if request.TopK > 0 {
		config.TopK = request.TopK
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.AskTimeout)
	defer cancel()

	start := time.Now()
	answer, err := s.asker.Ask(ctx, request.Question, s.sessions.History(sessionID), config)
	latency := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		s.respondAskError(c, requestID, err)
		return
	}

	s.sessions.Append(sessionID, model.Turn{Question: request.Question, Answer: answer.Text})

	interaction := &Interaction{
		Question:       request.Question,
		Answer:         answer.Text,
		Sources:        answer.Sources,
		SessionID:      sessionID,
		RequestID:      requestID,
		LatencyMs:      latency,
		RetrievalCount: answer.RetrievalCount(),
		Timestamp:      time.Now().UTC(),
	}
	if err := s.interactions.Append(interaction); err != nil {
		s.logger.Error("failed to log interaction", slog.Any("error", err))
	}

	c.JSON(http.StatusOK, askResponse{
		Question:       request.Question,
		Answer:         answer.Text,
		Sources:        answer.Sources,
		SessionID:      sessionID,
		RequestID:      requestID,
		LatencyMs:      latency,
		RetrievalCount: answer.RetrievalCount(),
		Timestamp:      interaction.Timestamp,
	})
}

func (s *Server) respondAskError(c *gin.Context, requestID string, err error) {
	s.logger.Warn("ask failed", slog.Any("error", err))

	switch {
	case errors.Is(err, model.ErrInvalidQuestion):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "question must not be empty",
			"request_id": requestID,
		})
	case errors.Is(err, model.ErrGeneratorUnavailable), errors.Is(err, model.ErrGeneratorTimeout):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":      "answer generation is unavailable, try again shortly",
			"request_id": requestID,
		})
	case errors.Is(err, model.ErrEmptyCorpus):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":      "knowledge base is empty, try again after the next rebuild",
			"request_id": requestID,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "internal error",
			"request_id": requestID,
		})
	}
}

func (s *Server) handleStatus(c *gin.Context) {
	status := gin.H{
		"status":   "ok",
		"uptime_s": int(time.Since(s.started).Seconds()),
		"sessions": s.sessions.Sessions(),
	}

	if s.generator != nil {
		status["model"] = s.generator.ModelName()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.generator.Ping(ctx); err != nil {
			status["generator"] = "unreachable"
		} else {
			status["generator"] = "ok"
		}
	}

	c.JSON(http.StatusOK, status)
}

func (s *Server) handleMetrics(c *gin.Context) {
	metrics, err := s.interactions.Metrics()
	if err != nil {
		s.logger.Error("failed to aggregate metrics", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, metrics)
}

func (s *Server) handleQuestions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"questions": testQuestions})
}
