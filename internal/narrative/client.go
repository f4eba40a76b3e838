// Package narrative streams AI-written stock commentary.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/wonny/bigorder/pkg/config"
	"github.com/wonny/bigorder/pkg/logger"
)

// ErrNotConfigured is returned when no usable API key is set
var ErrNotConfigured = errors.New("AI_API_KEY is not configured")

// FailurePrefix marks an error appended inline to a stream
const FailurePrefix = "[AI诊股失败]: "

// Prompt returns the diagnose prompt for one stock
func Prompt(symbol, name string) string {
	return fmt.Sprintf("请用中文分析股票 %s(%s) 的投资价值、风险、行业地位和未来走势。", name, symbol)
}

// Client wraps an OpenAI-compatible chat completion endpoint
type Client struct {
	api    *openai.Client
	model  string
	logger *logger.Logger
}

// NewClient creates a client from config; it fails when the key is missing or a placeholder
func NewClient(cfg *config.Config, log *logger.Logger) (*Client, error) {
	key := strings.TrimSpace(cfg.AI.APIKey)
	if key == "" || strings.HasPrefix(key, "sk-xxxx") {
		return nil, ErrNotConfigured
	}

	apiCfg := openai.DefaultConfig(key)
	if cfg.AI.BaseURL != "" {
		apiCfg.BaseURL = strings.TrimRight(cfg.AI.BaseURL, "/")
	}

	return &Client{
		api:    openai.NewClientWithConfig(apiCfg),
		model:  cfg.AI.Model,
		logger: log.WithModule("narrative"),
	}, nil
}

// Diagnose streams the narrative for one stock, calling onChunk for every
// non-empty delta in order. Returns the first error from the service or onChunk.
func (c *Client) Diagnose(ctx context.Context, symbol, name string, onChunk func(string) error) error {
	log := c.logger.WithStock(symbol, name)

	stream, err := c.api.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: Prompt(symbol, name)},
		},
		Stream: true,
	})
	if err != nil {
		log.WithError(err).Error("Failed to open narrative stream")
		return fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	chunks := 0
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.WithError(err).Error("Narrative stream broke")
			return fmt.Errorf("receive: %w", err)
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
			continue
		}
		if err := onChunk(resp.Choices[0].Delta.Content); err != nil {
			return err
		}
		chunks++
	}

	log.WithField("chunks", chunks).Info("Narrative completed")
	return nil
}
