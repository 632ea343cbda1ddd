package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"persona-profiler/internal/domain"
	"persona-profiler/internal/service"
)

// ProfileHandler expone la generación y consulta de perfiles.
type ProfileHandler struct {
	logger   *zap.Logger
	profiles *service.ProfileService
}

func NewProfileHandler(logger *zap.Logger, profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{logger: logger, profiles: profiles}
}

type questionAnswerRequest struct {
	QuestionID int64  `json:"question_id"`
	Question   string `json:"question"`
	Answer     string `json:"answer" binding:"required"`
}

type generateProfileRequest struct {
	SessionID string                  `json:"session_id" binding:"required"`
	Answers   []questionAnswerRequest `json:"answers" binding:"required,min=1,dive"`
}

// Generate maneja POST /api/profile/generate. Es idempotente por session_id.
func (h *ProfileHandler) Generate(c *gin.Context) {
	var req generateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, "generate profile", err)
		return
	}

	answers := make([]domain.QuestionAnswer, 0, len(req.Answers))
	for _, a := range req.Answers {
		answers = append(answers, domain.QuestionAnswer{QuestionID: a.QuestionID, Question: a.Question, Answer: a.Answer})
	}
	profile, err := h.profiles.Generate(c.Request.Context(), service.GenerateInput{
		SessionID: req.SessionID,
		OwnerID:   callerID(c),
		Answers:   answers,
	})
	if err != nil {
		respondError(c, h.logger, "generate profile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// Get maneja GET /api/profile/:id.
func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.profiles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "get profile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// List maneja GET /api/profile/list?page=&page_size=&owner_id=.
func (h *ProfileHandler) List(c *gin.Context) {
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 0)

	result, err := h.profiles.List(c.Request.Context(), page, pageSize, ownerScope(c))
	if err != nil {
		respondError(c, h.logger, "list profiles", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Recent maneja GET /api/profile/recent?limit=.
func (h *ProfileHandler) Recent(c *gin.Context) {
	profiles, err := h.profiles.Recent(c.Request.Context(), queryInt(c, "limit", 0), ownerScope(c))
	if err != nil {
		respondError(c, h.logger, "recent profiles", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": profiles})
}

// Health maneja GET /health; incluye el contador de extracciones degradadas.
func (h *ProfileHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":               "ok",
		"degraded_extractions": h.profiles.DegradedExtractions(),
	})
}

// ownerScope: owner_id explícito, si no el usuario autenticado, si no sin filtro.
func ownerScope(c *gin.Context) string {
	if owner := strings.TrimSpace(c.Query("owner_id")); owner != "" {
		return owner
	}
	return callerID(c)
}

func queryInt(c *gin.Context, name string, def int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
