// Package ai holds the text-generation provider used to top up the
// verse catalog for pro users.
package ai

import (
	"context"
	"errors"
)

// ErrQuotaExceeded signals the provider refused the request because the
// account quota ran out. Batch callers stop further attempts but keep
// what already succeeded.
var ErrQuotaExceeded = errors.New("generation quota exceeded")

// TextGenerator generates text from a system prompt and user prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
