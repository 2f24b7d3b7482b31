package server

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Yates-Labs/kural/internal/literary"
	"github.com/Yates-Labs/kural/internal/orchestrator"
	"github.com/Yates-Labs/kural/internal/rag"
)

type chatResponse struct {
	Response string `json:"response"`
}

type analyzeRequest struct {
	Prompt string `json:"prompt"`
}

type ttsRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type ttsResponse struct {
	Audio string `json:"audio"`
}

type statsResponse struct {
	Entries   int              `json:"entries"`
	Dimension int              `json:"dimension"`
	Kinds     map[rag.Kind]int `json:"kinds"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.service.Stats(c.Request.Context())
	if err != nil {
		s.fail(c, http.StatusInternalServerError, gin.H{"error": "Failed to read knowledge base", "details": err.Error()}, err)
		return
	}
	c.JSON(http.StatusOK, statsResponse{Entries: stats.Entries, Dimension: stats.Dimension, Kinds: stats.Kinds})
}

func (s *Server) handleChat(c *gin.Context) {
	var req orchestrator.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	reply, err := s.service.Chat(c.Request.Context(), req)
	if err != nil {
		switch orchestrator.Classify(err) {
		case orchestrator.KindInvalidRequest:
			msg := "Message is required"
			if errors.Is(err, literary.ErrIncompleteAnalysis) {
				msg = "Invalid analysis"
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": msg, "details": err.Error()})
		case orchestrator.KindUpstreamEmptyResponse:
			s.fail(c, http.StatusInternalServerError, gin.H{"error": "No valid response from LLM"}, err)
		default:
			s.fail(c, http.StatusInternalServerError, gin.H{"error": "Failed to process chat request", "details": err.Error()}, err)
		}
		return
	}

	c.JSON(http.StatusOK, chatResponse{Response: reply})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	analysis, err := s.service.AnalyzePoem(c.Request.Context(), req.Prompt)
	if err != nil {
		var invalid *literary.InvalidAnalysisError
		switch {
		case orchestrator.Classify(err) == orchestrator.KindInvalidRequest:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Poem text is required"})
		case errors.As(err, &invalid):
			s.fail(c, http.StatusInternalServerError, gin.H{"error": "Invalid JSON from LLM", "raw": invalid.Raw}, err)
		case orchestrator.Classify(err) == orchestrator.KindUpstreamEmptyResponse:
			s.fail(c, http.StatusInternalServerError, gin.H{"error": "No valid response from LLM"}, err)
		default:
			s.fail(c, http.StatusInternalServerError, gin.H{"error": "Failed to analyze poem", "details": err.Error()}, err)
		}
		return
	}

	c.JSON(http.StatusOK, analysis)
}

func (s *Server) handleTTS(c *gin.Context) {
	var req ttsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	audio, err := s.service.Synthesize(c.Request.Context(), req.Text, req.Language)
	if err != nil {
		if orchestrator.Classify(err) == orchestrator.KindInvalidRequest {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.fail(c, http.StatusInternalServerError, gin.H{"error": err.Error()}, err)
		return
	}

	c.JSON(http.StatusOK, ttsResponse{Audio: base64.StdEncoding.EncodeToString(audio)})
}

func (s *Server) fail(c *gin.Context, status int, body gin.H, err error) {
	s.logger.Error("request failed",
		slog.String("path", c.FullPath()),
		slog.String("kind", orchestrator.Classify(err).String()),
		slog.Any("error", err),
	)
	c.JSON(status, body)
}
