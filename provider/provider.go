// Package provider defines the narrow contract the engine uses to call a
// language model. Providers are stateless: every call carries the full
// system prompt and message history.
package provider

import (
	"context"

	"github.com/sweetpotato0/citekit/message"
)

// CompletionRequest bundles inputs for a single-shot completion.
type CompletionRequest struct {
	SystemPrompt string
	Messages     []*message.Message
	MaxTokens    int64
	Temperature  float64
}

// CompletionClient is implemented by the concrete model backends under
// contrib/provider. A nil client selects the deterministic template path
// everywhere the engine would otherwise call a model.
type CompletionClient interface {
	Complete(ctx context.Context, req *CompletionRequest) (string, error)
}
