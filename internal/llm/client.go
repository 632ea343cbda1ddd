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

// OpenAIClient implementa Provider contra una API chat-completions compatible con OpenAI.
type OpenAIClient struct {
	endpoint    string
	apiKey      string
	model       string
	temperature float64
	client      *http.Client
	logger      *zap.Logger
}

// NewOpenAIClient construye un cliente apuntando a {baseURL}/chat/completions.
// Si baseURL ya termina en /chat/completions se usa tal cual.
func NewOpenAIClient(baseURL, apiKey, model string, temperature float64, httpClient *http.Client, logger *zap.Logger) *OpenAIClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	endpoint := strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(endpoint, "/chat/completions") {
		endpoint += "/chat/completions"
	}
	if httpClient == nil {
		httpClient = newHTTPClient(0, 0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAIClient{
		endpoint:    endpoint,
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		client:      httpClient,
		logger:      logger,
	}
}

func (c *OpenAIClient) Send(ctx context.Context, history []Message) (string, error) {
	reqBody := chatRequest{
		Model:       c.model,
		Messages:    history,
		Temperature: c.temperature,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
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
			zap.String("provider", KindOpenAI),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncateBody(respBody)),
		)
		return "", fmt.Errorf("%w: status=%d", ErrProviderUnavailable, resp.StatusCode)
	}

	var cr chatResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return "", fmt.Errorf("%w: unmarshal response: %v", ErrProviderUnavailable, err)
	}

	if cr.Error != nil {
		return "", fmt.Errorf("%w: api error: %s", ErrProviderUnavailable, cr.Error.Message)
	}

	if len(cr.Choices) == 0 || strings.TrimSpace(cr.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: empty response", ErrProviderUnavailable)
	}

	return strings.TrimSpace(cr.Choices[0].Message.Content), nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

const maxLoggedBody = 512

func truncateBody(b []byte) []byte {
	if len(b) > maxLoggedBody {
		return b[:maxLoggedBody]
	}
	return b
}
