// internal/llm/ollama_client.go
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ollamaClient talks to a local Ollama-compatible inference server. The
// server streams newline-delimited JSON chunks; tokens are surfaced as they
// arrive and concatenated into the final response.
type ollamaClient struct {
	url    string
	model  string
	client *http.Client
}

// NewOllamaClient builds an InferenceHelper against a local generate
// endpoint. The timeout bounds a whole generation, not a single chunk.
func NewOllamaClient(url, model string, timeout time.Duration) InferenceHelper {
	return &ollamaClient{
		url:   url,
		model: model,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type responseChunk struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
}

func (c *ollamaClient) Generate(ctx context.Context, prompt string, onToken TokenFunc) (string, error) {
	body, err := json.Marshal(generateRequest{Model: c.model, Prompt: prompt, Stream: true})
	if err != nil {
		return "", fmt.Errorf("ollamaClient.Generate: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("ollamaClient.Generate: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("ollamaClient.Generate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollamaClient.Generate: inference server returned %s", resp.Status)
	}

	var builder strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var chunk responseChunk
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			// Tolerate malformed chunks; the stream usually recovers.
			continue
		}
		if chunk.Response != "" {
			builder.WriteString(chunk.Response)
			if onToken != nil {
				onToken(chunk.Response)
			}
		}
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		// Cancellation mid-stream: hand back what was generated so far.
		if ctx.Err() != nil {
			return builder.String(), ctx.Err()
		}
		return builder.String(), fmt.Errorf("ollamaClient.Generate: read stream: %w", err)
	}
	if ctx.Err() != nil {
		return builder.String(), ctx.Err()
	}

	if builder.Len() == 0 {
		return "", errors.New("ollamaClient.Generate: empty response from inference server")
	}
	return builder.String(), nil
}
