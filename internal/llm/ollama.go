package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// OllamaClient implementa Provider contra un endpoint local de generación (sin auth).
type OllamaClient struct {
	endpoint string
	model    string
	client   *http.Client
	logger   *zap.Logger
}

// NewOllamaClient recibe la ruta completa de generación, p.ej. http://localhost:11434/api/generate.
func NewOllamaClient(endpoint, model string, httpClient *http.Client, logger *zap.Logger) *OllamaClient {
	if endpoint == "" {
		endpoint = "http://localhost:11434/api/generate"
	}
	if httpClient == nil {
		httpClient = newHTTPClient(0, 0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OllamaClient{
		endpoint: endpoint,
		model:    model,
		client:   httpClient,
		logger:   logger,
	}
}

func (c *OllamaClient) Send(ctx context.Context, history []Message) (string, error) {
	bodyBytes, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: FlattenHistory(history),
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: do request: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrProviderUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("llm error status",
			zap.String("provider", KindOllama),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncateBody(respBody)),
		)
		return "", fmt.Errorf("%w: status=%d", ErrProviderUnavailable, resp.StatusCode)
	}

	var gr generateResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return "", fmt.Errorf("%w: unmarshal response: %v", ErrProviderUnavailable, err)
	}
	if gr.Error != "" {
		return "", fmt.Errorf("%w: api error: %s", ErrProviderUnavailable, gr.Error)
	}
	if gr.Response == nil || strings.TrimSpace(*gr.Response) == "" {
		return "", fmt.Errorf("%w: empty response", ErrProviderUnavailable)
	}

	return strings.TrimSpace(*gr.Response), nil
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response *string `json:"response"`
	Error    string  `json:"error,omitempty"`
}
