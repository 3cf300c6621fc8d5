// Package llm wraps single-shot text generation behind Client.
//
// Every failure is reported as a *GenerationError and is terminal for the
// caller: nothing here retries, and an empty completion is never a success.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Client generates one completion for a system/user prompt pair.
type Client interface {
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ErrEmptyResponse is returned when the provider answered without any text,
// including prompts it refused to answer.
var ErrEmptyResponse = errors.New("empty response from model")

// GenerationError is any failed generation: transport, auth, quota, or a
// refused/empty response. Callers do not distinguish subtypes.
type GenerationError struct {
	Model string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation with %s failed: %v", e.Model, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

type labelKey struct{}

// WithLabel attaches a human-readable label (the stage name) to ctx.
func WithLabel(ctx context.Context, label string) context.Context {
	return context.WithValue(ctx, labelKey{}, label)
}

// Label returns the label set by WithLabel, or "LLM call".
func Label(ctx context.Context) string {
	if v, ok := ctx.Value(labelKey{}).(string); ok && v != "" {
		return v
	}
	return "LLM call"
}
