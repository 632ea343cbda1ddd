package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"persona-profiler/internal/llm"
	"persona-profiler/internal/repository"
	"persona-profiler/internal/service"
)

// respondError traduce errores de servicio al envelope {"error": ...}. Los errores
// internos y del proveedor se loguean, nunca se devuelven.
func respondError(c *gin.Context, logger *zap.Logger, op string, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": service.ErrValidation.Error(), "fields": verr.Fields})
	case errors.Is(err, repository.ErrNotFound):
		notFound(c)
	case errors.Is(err, service.ErrReportNotReady):
		c.JSON(http.StatusConflict, gin.H{"error": service.ErrReportNotReady.Error()})
	case errors.Is(err, service.ErrTranscriptFrozen):
		c.JSON(http.StatusConflict, gin.H{"error": service.ErrTranscriptFrozen.Error()})
	case errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": service.ErrRateLimited.Error(), "code": http.StatusTooManyRequests})
	case errors.Is(err, llm.ErrProviderUnavailable):
		logger.Warn(op+" failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "language model provider unavailable"})
	default:
		logger.Error(op+" failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// respondBindError devuelve 422 con detalle por campo para errores del validator
// y 400 para cuerpos que no se pueden decodificar.
func respondBindError(c *gin.Context, logger *zap.Logger, op string, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fieldPath(fe)] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": service.ErrValidation.Error(), "fields": fields})
		return
	}
	logger.Warn("invalid "+op+" request", zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}

// fieldPath quita el nombre del struct raíz: "req.answers[0].content" -> "answers[0].content".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}
