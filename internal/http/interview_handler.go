package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"persona-profiler/internal/llm"
	"persona-profiler/internal/service"
)

// InterviewHandler expone la entrevista conversacional.
type InterviewHandler struct {
	logger     *zap.Logger
	interviews *service.InterviewService
}

func NewInterviewHandler(logger *zap.Logger, interviews *service.InterviewService) *InterviewHandler {
	return &InterviewHandler{logger: logger, interviews: interviews}
}

type interviewAnswerRequest struct {
	Content string `json:"content" binding:"required"`
}

// Start maneja POST /api/interview/start.
func (h *InterviewHandler) Start(c *gin.Context) {
	session, opening, err := h.interviews.StartInterview(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, h.logger, "start interview", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session, "message": opening})
}

// Answer maneja POST /api/interview/:session_id/answer. Si el proveedor falla
// responde 502 e incluye el mensaje de sistema agregado a la transcripción.
func (h *InterviewHandler) Answer(c *gin.Context) {
	var req interviewAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, "interview answer", err)
		return
	}

	msg, state, err := h.interviews.AskNextQuestion(c.Request.Context(), c.Param("session_id"), req.Content)
	if err != nil {
		if errors.Is(err, llm.ErrProviderUnavailable) && msg.ID != "" {
			h.logger.Warn("interview question failed", zap.String("session_id", c.Param("session_id")), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   "language model provider unavailable",
				"message": msg,
				"state":   state,
			})
			return
		}
		respondError(c, h.logger, "interview answer", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "state": state})
}

// Report maneja POST /api/interview/:session_id/report.
func (h *InterviewHandler) Report(c *gin.Context) {
	profile, err := h.interviews.GenerateReport(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		respondError(c, h.logger, "interview report", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// State maneja GET /api/interview/:session_id.
func (h *InterviewHandler) State(c *gin.Context) {
	state, err := h.interviews.State(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		respondError(c, h.logger, "interview state", err)
		return
	}
	c.JSON(http.StatusOK, state)
}
