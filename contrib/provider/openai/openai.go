// Package openai implements provider.CompletionClient over the official
// OpenAI SDK.
package openai

import (
	"context"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"

	"github.com/sweetpotato0/citekit/message"
	"github.com/sweetpotato0/citekit/provider"
)

// Config holds OpenAI provider configuration
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// DefaultConfig returns default OpenAI configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey: apiKey,
		Model:  "gpt-4o-mini",
	}
}

// Provider implements provider.CompletionClient for OpenAI
type Provider struct {
	config *Config
	client openaisdk.Client
}

// New creates a new OpenAI provider using the official SDK
func New(config *Config) *Provider {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if strings.TrimSpace(config.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &Provider{
		config: config,
		client: openaisdk.NewClient(opts...),
	}
}

// Complete implements provider.CompletionClient
func (p *Provider) Complete(ctx context.Context, req *provider.CompletionRequest) (string, error) {
	if req == nil {
		return "", fmt.Errorf("completion request cannot be nil")
	}

	msgs := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		msgs = append(msgs, openaisdk.SystemMessage(req.SystemPrompt))
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case message.RoleSystem:
			msgs = append(msgs, openaisdk.SystemMessage(msg.Text()))
		case message.RoleUser:
			msgs = append(msgs, openaisdk.UserMessage(msg.Text()))
		case message.RoleAssistant:
			msgs = append(msgs, openaisdk.AssistantMessage(msg.Text()))
		}
	}

	params := openaisdk.ChatCompletionNewParams{
		Messages: msgs,
		Model:    openaisdk.ChatModel(p.config.Model),
	}
	if req.Temperature > 0 {
		params.Temperature = param.NewOpt(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(req.MaxTokens)
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from OpenAI")
	}
	return completion.Choices[0].Message.Content, nil
}
