package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Request es un intercambio system + user contra un modelo de chat.
type Request struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// LLMClient define la interfaz para generar respuestas con un LLM.
type LLMClient interface {
	Generate(ctx context.Context, req Request) (string, error)
	// Stream invoca onChunk por cada fragmento y devuelve el texto completo.
	// Un error de onChunk corta el stream.
	Stream(ctx context.Context, req Request, onChunk func(string) error) (string, error)
}

var ErrEmptyResponse = errors.New("llm empty response")

// OpenAIClient implementa LLMClient contra cualquier API compatible con
// chat completions de OpenAI.
type OpenAIClient struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewOpenAIClient(baseURL, apiKey, model string, logger *zap.Logger) *OpenAIClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: 120 * time.Second}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger,
	}
}

func (c *OpenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.chatRequest(req, false))
	if err != nil {
		c.logger.Warn("llm request failed", zap.String("model", c.model), zap.Error(err))
		return "", fmt.Errorf("llm request: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) Stream(ctx context.Context, req Request, onChunk func(string) error) (string, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, c.chatRequest(req, true))
	if err != nil {
		c.logger.Warn("llm stream failed", zap.String("model", c.model), zap.Error(err))
		return "", fmt.Errorf("llm stream: %w", err)
	}
	defer stream.Close()

	var full strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return full.String(), fmt.Errorf("read stream: %w", err)
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		text := chunk.Choices[0].Delta.Content
		full.WriteString(text)
		if onChunk != nil {
			if err := onChunk(text); err != nil {
				return full.String(), err
			}
		}
	}
	if full.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return full.String(), nil
}

func (c *OpenAIClient) chatRequest(req Request, stream bool) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.User})
	return openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
		Stream:      stream,
	}
}
