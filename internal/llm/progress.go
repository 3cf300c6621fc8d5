package llm

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Progress is told when a call starts; the returned func is called exactly
// once when it ends.
type Progress interface {
	Start(label string) (stop func())
}

// NopProgress reports nothing.
type NopProgress struct{}

// Start implements Progress.
func (NopProgress) Start(string) func() { return func() {} }

// ProgressClient wraps a Client and surfaces progress for the duration of
// each call.
type ProgressClient struct {
	underlying Client
	progress   Progress
	logger     *zap.Logger
}

// NewProgressClient wraps underlying. A nil progress reports nothing.
func NewProgressClient(underlying Client, progress Progress, logger *zap.Logger) *ProgressClient {
	if progress == nil {
		progress = NopProgress{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressClient{underlying: underlying, progress: progress, logger: logger}
}

// CompleteWithSystem implements Client.
func (p *ProgressClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	label := Label(ctx)
	p.logger.Info("LLM call started", zap.String("label", label), zap.Int("prompt_len", len(userPrompt)))

	start := time.Now()
	stop := p.progress.Start(label)
	text, err := p.underlying.CompleteWithSystem(ctx, systemPrompt, userPrompt)
	stop()

	if err != nil {
		p.logger.Error("LLM call failed", zap.String("label", label), zap.Duration("duration", time.Since(start)), zap.Error(err))
		return "", err
	}
	p.logger.Info("LLM call finished", zap.String("label", label), zap.Duration("duration", time.Since(start)))
	return text, nil
}
