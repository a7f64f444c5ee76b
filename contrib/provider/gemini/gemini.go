// Package gemini implements provider.CompletionClient over the official
// Google Generative AI SDK.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/sweetpotato0/citekit/message"
	"github.com/sweetpotato0/citekit/provider"
)

// Config holds Gemini provider configuration
type Config struct {
	APIKey string
	Model  string
}

// DefaultConfig returns default Gemini configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey: apiKey,
		Model:  "gemini-1.5-flash",
	}
}

// Provider implements provider.CompletionClient for Google Gemini
type Provider struct {
	config *Config
	client *genai.Client
}

// New creates a new Gemini provider using the official SDK
func New(ctx context.Context, config *Config) (*Provider, error) {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key not configured")
	}
	if config.Model == "" {
		config.Model = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return &Provider{config: config, client: client}, nil
}

// Complete implements provider.CompletionClient
func (p *Provider) Complete(ctx context.Context, req *provider.CompletionRequest) (string, error) {
	if req == nil {
		return "", fmt.Errorf("completion request cannot be nil")
	}

	model := p.client.GenerativeModel(p.config.Model)
	if req.SystemPrompt != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.SystemPrompt)},
		}
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.Temperature > 0 {
		model.SetTemperature(float32(req.Temperature))
	}

	var prompt strings.Builder
	for _, msg := range req.Messages {
		if msg.Role == message.RoleSystem {
			continue // system text is carried via SystemInstruction
		}
		if prompt.Len() > 0 {
			prompt.WriteString("\n\n")
		}
		prompt.WriteString(msg.Text())
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt.String()))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no text content returned from Gemini")
	}
	return b.String(), nil
}

// Close releases the underlying client.
func (p *Provider) Close() error { return p.client.Close() }
