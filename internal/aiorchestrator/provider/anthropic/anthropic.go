// Package anthropic dispatches vision-analysis requests to the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/deco-run/deco-core/internal/aiorchestrator/imageenc"
)

const defaultModel = "claude-3-5-sonnet-20241022"

// Provider talks to the Anthropic Messages API, or any endpoint compatible
// with it.
type Provider struct {
	client anthropic.Client
	model  string
}

func New(apiKey, model, endpoint string) *Provider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if endpoint != "" {
		opts = append(opts, option.WithBaseURL(endpoint))
	}
	if model == "" {
		model = defaultModel
	}
	return &Provider{client: anthropic.NewClient(opts...), model: model}
}

// Analyze sends one image plus prompt to the configured Claude model and
// returns the concatenated text content of the response.
func (p *Provider) Analyze(ctx context.Context, imagePath, prompt string) (string, error) {
	data, mime, err := imageenc.EncodeBase64(imagePath)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(mime, data),
				anthropic.NewTextBlock(prompt),
			),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages.new: %w", err)
	}

	var text string
	for _, block := range message.Content {
		if variant := block.AsAny(); variant != nil {
			if textBlock, ok := variant.(anthropic.TextBlock); ok {
				text += textBlock.Text
			}
		}
	}
	return text, nil
}
