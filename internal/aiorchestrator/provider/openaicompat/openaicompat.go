// Package openaicompat dispatches vision-analysis requests to any
// OpenAI-compatible chat-completions endpoint.
package openaicompat

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/deco-run/deco-core/internal/aiorchestrator/imageenc"
)

const defaultModel = "gpt-4o-mini"

// Provider talks to an OpenAI-compatible /chat/completions endpoint.
type Provider struct {
	client openai.Client
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
	return &Provider{client: openai.NewClient(opts...), model: model}
}

// Analyze sends one image plus prompt and returns the assistant's message
// content, requesting a JSON-object response so providers that honor
// response_format skip free text entirely.
func (p *Provider) Analyze(ctx context.Context, imagePath, prompt string) (string, error) {
	data, mime, err := imageenc.EncodeBase64(imagePath)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mime, data)

	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     p.model,
		MaxTokens: openai.Int(1024),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageParam{
					ImageURL: openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL},
				}),
			}),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat.completions.new: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("openai response had no choices")
	}
	return completion.Choices[0].Message.Content, nil
}
