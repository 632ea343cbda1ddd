package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"persona-profiler/internal/service"
)

// AnswerHandler expone el guardado y listado de respuestas del cuestionario.
type AnswerHandler struct {
	logger  *zap.Logger
	answers *service.AnswerService
}

func NewAnswerHandler(logger *zap.Logger, answers *service.AnswerService) *AnswerHandler {
	return &AnswerHandler{logger: logger, answers: answers}
}

type saveAnswerRequest struct {
	SessionID  string `json:"session_id" binding:"required"`
	QuestionID int64  `json:"question_id" binding:"required,gt=0"`
	Content    string `json:"content" binding:"required"`
}

type answerItemRequest struct {
	QuestionID int64  `json:"question_id" binding:"required,gt=0"`
	Content    string `json:"content" binding:"required"`
}

type saveBatchRequest struct {
	SessionID string              `json:"session_id" binding:"required"`
	Answers   []answerItemRequest `json:"answers" binding:"required,min=1,dive"`
}

// Save maneja POST /api/answer/save.
func (h *AnswerHandler) Save(c *gin.Context) {
	var req saveAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, "save answer", err)
		return
	}

	answer, err := h.answers.SaveAnswer(c.Request.Context(), service.SaveAnswerInput{
		SessionID:  req.SessionID,
		QuestionID: req.QuestionID,
		Content:    req.Content,
		OwnerID:    callerID(c),
	})
	if err != nil {
		respondError(c, h.logger, "save answer", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

// SaveBatch maneja POST /api/answer/save-batch y devuelve todas las respuestas de la sesión.
func (h *AnswerHandler) SaveBatch(c *gin.Context) {
	var req saveBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, "save answers batch", err)
		return
	}

	items := make([]service.AnswerItem, 0, len(req.Answers))
	for _, a := range req.Answers {
		items = append(items, service.AnswerItem{QuestionID: a.QuestionID, Content: a.Content})
	}
	answers, err := h.answers.SaveBatch(c.Request.Context(), req.SessionID, callerID(c), items)
	if err != nil {
		respondError(c, h.logger, "save answers batch", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answers": answers})
}

// ListBySession maneja GET /api/answer/session?session_id=.
func (h *AnswerHandler) ListBySession(c *gin.Context) {
	answers, err := h.answers.List(c.Request.Context(), c.Query("session_id"))
	if err != nil {
		respondError(c, h.logger, "list answers", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answers": answers})
}
