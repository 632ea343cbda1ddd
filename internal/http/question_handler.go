package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"persona-profiler/internal/service"
)

// QuestionHandler expone el catálogo del cuestionario fijo.
type QuestionHandler struct {
	logger    *zap.Logger
	questions *service.QuestionService
}

func NewQuestionHandler(logger *zap.Logger, questions *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{logger: logger, questions: questions}
}

// List maneja GET /api/questions/list.
func (h *QuestionHandler) List(c *gin.Context) {
	questions, err := h.questions.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "list questions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

// Get maneja GET /api/questions/:id.
func (h *QuestionHandler) Get(c *gin.Context) {
	question, err := h.questions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "get question", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"question": question})
}
