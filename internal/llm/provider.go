package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrProviderUnavailable cubre fallos de red, status no exitoso y envelopes mal formados.
var ErrProviderUnavailable = errors.New("llm provider unavailable")

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message es un mensaje con rol, tal como lo espera la variante chat.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider es la capacidad única de enviar un historial y recibir texto.
type Provider interface {
	Send(ctx context.Context, history []Message) (string, error)
}

const (
	KindOpenAI = "openai"
	KindOllama = "ollama"
	KindMock   = "mock"
)

// Settings agrupa la elección de proveedor, endpoint, modelo y credencial.
// Se pasa una sola vez al construir el cliente.
type Settings struct {
	Provider       string
	BaseURL        string
	APIKey         string
	Model          string
	Temperature    float64
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

const placeholderAPIKey = "your-openai-api-key"

// Kind resuelve qué variante usar. Sin credencial la variante hosted cae al mock.
func (s Settings) Kind() string {
	if strings.EqualFold(s.Provider, KindOllama) {
		return KindOllama
	}
	key := strings.TrimSpace(s.APIKey)
	if key == "" || key == placeholderAPIKey {
		return KindMock
	}
	return KindOpenAI
}

// New construye el Provider correspondiente a settings.
func New(settings Settings, logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := newHTTPClient(settings.ConnectTimeout, settings.ReadTimeout)
	switch settings.Kind() {
	case KindOllama:
		return NewOllamaClient(settings.BaseURL, settings.Model, httpClient, logger)
	case KindOpenAI:
		return NewOpenAIClient(settings.BaseURL, settings.APIKey, settings.Model, settings.Temperature, httpClient, logger)
	default:
		logger.Warn("llm api key not configured, using mock provider")
		return NewMockClient()
	}
}

// newHTTPClient separa el timeout de conexión (corto) del de lectura (largo).
func newHTTPClient(connectTimeout, readTimeout time.Duration) *http.Client {
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	if readTimeout <= 0 {
		readTimeout = 180 * time.Second
	}
	dialer := &net.Dialer{Timeout: connectTimeout, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: connectTimeout,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
	}
	return &http.Client{Transport: transport, Timeout: readTimeout}
}

// FlattenHistory junta el historial en un único prompt para endpoints de completion.
func FlattenHistory(history []Message) string {
	parts := make([]string, 0, len(history))
	for _, m := range history {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		parts = append(parts, content)
	}
	return strings.Join(parts, "\n\n")
}
