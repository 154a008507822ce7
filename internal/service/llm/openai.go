package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"podium/internal/domain"
)

// OpenAIProvider serves gpt-* and o-series models through the official
// openai-go SDK.
type OpenAIProvider struct {
	client       openai.Client
	defaultModel string
}

// NewOpenAIProvider creates a provider. baseURL is optional and allows
// pointing at an OpenAI-compatible gateway.
func NewOpenAIProvider(apiKey, defaultModel, baseURL string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key missing")
	}
	if defaultModel == "" {
		return nil, fmt.Errorf("openai default model missing")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIProvider{
		client:       openai.NewClient(opts...),
		defaultModel: defaultModel,
	}, nil
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

func (p *OpenAIProvider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "gpt-") ||
		strings.HasPrefix(model, "o1") ||
		strings.HasPrefix(model, "o3")
}

func (p *OpenAIProvider) Complete(ctx context.Context, req *Request) (string, error) {
	model := req.Model
	if model == "" || !p.SupportsModel(model) {
		model = p.defaultModel
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.Prompt),
		},
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: openai: %v", domain.ErrModelCall, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", domain.ErrModelCall)
	}
	return resp.Choices[0].Message.Content, nil
}
