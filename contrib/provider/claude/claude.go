// Package claude implements provider.CompletionClient over the official
// Anthropic SDK.
package claude

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"github.com/sweetpotato0/citekit/message"
	"github.com/sweetpotato0/citekit/provider"
)

// Config holds Claude provider configuration
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// DefaultConfig returns default Claude configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey: apiKey,
		Model:  "claude-3-5-sonnet-20241022",
	}
}

// Provider implements provider.CompletionClient for Claude
type Provider struct {
	config *Config
	client anthropic.Client
}

// New creates a new Claude provider using the official SDK
func New(config *Config) *Provider {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.Model == "" {
		config.Model = "claude-3-5-sonnet-20241022"
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &Provider{
		config: config,
		client: anthropic.NewClient(opts...),
	}
}

// Complete implements provider.CompletionClient
func (p *Provider) Complete(ctx context.Context, req *provider.CompletionRequest) (string, error) {
	if req == nil {
		return "", fmt.Errorf("completion request cannot be nil")
	}

	systemPrompts := make([]string, 0, 1)
	if req.SystemPrompt != "" {
		systemPrompts = append(systemPrompts, req.SystemPrompt)
	}

	conversation := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case message.RoleSystem:
			systemPrompts = append(systemPrompts, msg.Text())
		case message.RoleUser:
			conversation = append(conversation,
				anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Text())))
		case message.RoleAssistant:
			conversation = append(conversation,
				anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Text())))
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.config.Model),
		Messages:  conversation,
		MaxTokens: maxTokens,
	}
	if len(systemPrompts) > 0 {
		params.System = []anthropic.TextBlockParam{
			{Text: strings.Join(systemPrompts, "\n")},
		}
	}
	if req.Temperature > 0 {
		params.Temperature = param.NewOpt(req.Temperature)
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("Claude API error: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no text content returned from Claude")
	}
	return b.String(), nil
}
