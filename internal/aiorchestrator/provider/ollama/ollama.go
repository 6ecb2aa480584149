// Package ollama is a thin hand-rolled client for a local Ollama daemon's
// chat API — no official Go SDK exists for it, so this mirrors the shape
// of a local-model HTTP client: build the request struct by hand, POST it,
// decode the response. The HTTP client sets no timeout of its own; each
// request is bounded only by the context passed to Analyze.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/deco-run/deco-core/internal/aiorchestrator/imageenc"
)

const (
	defaultEndpoint = "http://127.0.0.1:11434"
	defaultModel    = "llava"
)

// Provider talks to a local Ollama daemon's /api/chat endpoint.
type Provider struct {
	httpClient *http.Client
	endpoint   string
	model      string
}

func New(model, endpoint string) *Provider {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if model == "" {
		model = defaultModel
	}
	return &Provider{httpClient: &http.Client{}, endpoint: endpoint, model: model}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// Analyze sends one image plus prompt to the local Ollama daemon, passing
// the image as raw base64 (no data URI prefix, per Ollama's wire format).
func (p *Provider) Analyze(ctx context.Context, imagePath, prompt string) (string, error) {
	data, _, err := imageenc.EncodeBase64(imagePath)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	reqBody := chatRequest{
		Model:  p.model,
		Stream: false,
		Format: "json",
		Messages: []chatMessage{
			{Role: "user", Content: prompt, Images: []string{data}},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal ollama request: %w", err)
	}

	url := p.endpoint + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama request returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	return parsed.Message.Content, nil
}
