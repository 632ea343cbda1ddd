package service

import (
	"encoding/json"
	"sync/atomic"

	"go.uber.org/zap"

	"persona-profiler/internal/domain"
)

// ExtractStructuredData busca el bloque JSON cercado en la salida del modelo.
// Si no hay bloque, no es un objeto JSON o viene vacío, devuelve DefaultProfileData y false.
// Un objeto válido se conserva tal cual: campos faltantes, claves extra o tipos
// inesperados no lo descartan.
func ExtractStructuredData(content string) (domain.ProfileData, bool) {
	body, ok := fencedJSONBlock(content)
	if !ok {
		return domain.DefaultProfileData(), false
	}
	if obj, found := FirstJSONObject(body); found {
		body = obj
	}

	var data domain.ProfileData
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		return domain.DefaultProfileData(), false
	}
	if data.IsEmpty() {
		return domain.DefaultProfileData(), false
	}
	return data, true
}

// ResponseExtractor envuelve ExtractStructuredData contando y logueando las
// extracciones degradadas.
type ResponseExtractor struct {
	logger   *zap.Logger
	degraded atomic.Int64
}

func NewResponseExtractor(logger *zap.Logger) *ResponseExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResponseExtractor{logger: logger}
}

func (e *ResponseExtractor) Extract(sessionID, content string) domain.ProfileData {
	data, ok := ExtractStructuredData(content)
	if !ok {
		total := e.degraded.Add(1)
		e.logger.Warn("structured block missing or unreadable, using default",
			zap.String("session_id", sessionID),
			zap.Int("content_len", len(content)),
			zap.Int64("degraded_total", total),
		)
	}
	return data
}

// DegradedCount es el total de extracciones que cayeron al bloque por defecto.
func (e *ResponseExtractor) DegradedCount() int64 {
	if e == nil {
		return 0
	}
	return e.degraded.Load()
}
