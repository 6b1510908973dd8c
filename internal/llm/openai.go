package llm

import (
	"context"
	"fmt"
)

const (
	DefaultOpenAIURL       = "https://api.openai.com"
	DefaultOpenAIChatModel = "gpt-4o-mini"
	DefaultOpenAIEmbedding = "text-embedding-3-small"
)

// OpenAIProvider calls any OpenAI-compatible endpoint.
type OpenAIProvider struct {
	*baseClient
	chatModel      string
	embeddingModel string
}

// NewOpenAIProvider creates an OpenAI-compatible provider.
func NewOpenAIProvider(cfg ClientConfig, chatModel, embeddingModel string) *OpenAIProvider {
	if cfg.Name == "" {
		cfg.Name = "openai"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIURL
	}
	if chatModel == "" {
		chatModel = DefaultOpenAIChatModel
	}
	if embeddingModel == "" {
		embeddingModel = DefaultOpenAIEmbedding
	}
	return &OpenAIProvider{
		baseClient:     newBaseClient(cfg),
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
	}
}

type openAIChatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type openAIEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Complete sends a chat completion request.
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	body := openAIChatRequest{
		Model:       p.chatModel,
		Messages:    messages(req),
		Temperature: req.Temperature,
	}
	var resp openAIChatResponse
	if err := p.postJSON(ctx, "/v1/chat/completions", body, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%s: %w", p.name, ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

// Embed returns the embedding of text.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	var resp openAIEmbedResponse
	if err := p.postJSON(ctx, "/v1/embeddings", openAIEmbedRequest{Model: p.embeddingModel, Input: text}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%s: %w", p.name, ErrEmptyResponse)
	}
	return resp.Data[0].Embedding, nil
}
