package llm

import (
	"context"
	"fmt"
)

// Ollama model defaults, matching a stock local installation.
const (
	DefaultOllamaURL       = "http://localhost:11434"
	DefaultOllamaChatModel = "llama3"
	DefaultOllamaEmbedding = "nomic-embed-text"
)

// OllamaProvider calls a local Ollama server.
type OllamaProvider struct {
	*baseClient
	chatModel      string
	embeddingModel string
}

// NewOllamaProvider creates an Ollama provider, filling model defaults.
func NewOllamaProvider(cfg ClientConfig, chatModel, embeddingModel string) *OllamaProvider {
	if cfg.Name == "" {
		cfg.Name = "ollama"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOllamaURL
	}
	if chatModel == "" {
		chatModel = DefaultOllamaChatModel
	}
	if embeddingModel == "" {
		embeddingModel = DefaultOllamaEmbedding
	}
	return &OllamaProvider{
		baseClient:     newBaseClient(cfg),
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Complete sends a non-streaming chat request.
func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	body := ollamaChatRequest{
		Model:    p.chatModel,
		Messages: messages(req),
		Options:  map[string]any{"temperature": req.Temperature},
	}
	var resp ollamaChatResponse
	if err := p.postJSON(ctx, "/api/chat", body, &resp); err != nil {
		return "", err
	}
	if resp.Message.Content == "" {
		return "", fmt.Errorf("%s: %w", p.name, ErrEmptyResponse)
	}
	return resp.Message.Content, nil
}

// Embed returns the embedding of text.
func (p *OllamaProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	var resp ollamaEmbedResponse
	if err := p.postJSON(ctx, "/api/embeddings", ollamaEmbedRequest{Model: p.embeddingModel, Prompt: text}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("%s: %w", p.name, ErrEmptyResponse)
	}
	return resp.Embedding, nil
}

func messages(req CompletionRequest) []chatMessage {
	out := make([]chatMessage, 0, 2)
	if req.System != "" {
		out = append(out, chatMessage{Role: "system", Content: req.System})
	}
	return append(out, chatMessage{Role: "user", Content: req.User})
}
