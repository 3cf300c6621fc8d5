package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"techwriter/internal/config"
)

// GeminiConfig holds configuration for GeminiClient.
type GeminiConfig struct {
	APIKey          string
	Model           string
	Temperature     float32
	MaxOutputTokens int
	Timeout         time.Duration

	// BaseURL overrides the API endpoint. Empty uses the SDK default.
	BaseURL string
}

// DefaultGeminiConfig returns the fixed generation parameters.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:          apiKey,
		Model:           config.DefaultModel,
		Temperature:     config.DefaultTemperature,
		MaxOutputTokens: config.DefaultMaxOutputTokens,
		Timeout:         10 * time.Minute,
	}
}

// GeminiConfigFrom maps the loaded configuration.
func GeminiConfigFrom(cfg *config.Config) GeminiConfig {
	return GeminiConfig{
		APIKey:          cfg.LLM.APIKey,
		Model:           cfg.LLM.Model,
		Temperature:     cfg.LLM.Temperature,
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
		Timeout:         cfg.GetLLMTimeout(),
		BaseURL:         cfg.LLM.BaseURL,
	}
}

// GeminiClient implements Client with the Google GenAI SDK.
type GeminiClient struct {
	client          *genai.Client
	model           string
	temperature     float32
	maxOutputTokens int32
	timeout         time.Duration
	logger          *zap.Logger
}

// NewGeminiClient creates a Gemini client. The model is resolved once here.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, config.ErrMissingAPIKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = config.DefaultModel
	}
	maxTokens := cfg.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = config.DefaultMaxOutputTokens
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = config.DefaultTemperature
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiClient{
		client:          client,
		model:           model,
		temperature:     temperature,
		maxOutputTokens: int32(maxTokens),
		timeout:         cfg.Timeout,
		logger:          logger,
	}, nil
}

// Model returns the resolved model name.
func (c *GeminiClient) Model() string {
	return c.model
}

// safetySettings relaxes all four configurable categories. Critiques of
// technical prose are routinely false-flagged at the default thresholds.
func safetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, cat := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  cat,
			Threshold: genai.HarmBlockThresholdBlockNone,
		})
	}
	return settings
}

func (c *GeminiClient) generateConfig(systemPrompt string) *genai.GenerateContentConfig {
	gc := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(c.temperature),
		MaxOutputTokens: c.maxOutputTokens,
		SafetySettings:  safetySettings(),
	}
	if systemPrompt != "" {
		gc.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}
	return gc
}

// CompleteWithSystem sends one generation request.
func (c *GeminiClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(userPrompt), c.generateConfig(systemPrompt))
	if err != nil {
		return "", &GenerationError{Model: c.model, Err: err}
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		err := ErrEmptyResponse
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			err = fmt.Errorf("%w (prompt blocked: %s)", ErrEmptyResponse, resp.PromptFeedback.BlockReason)
		} else if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
			err = fmt.Errorf("%w (finish reason: %s)", ErrEmptyResponse, resp.Candidates[0].FinishReason)
		}
		return "", &GenerationError{Model: c.model, Err: err}
	}

	fields := []zap.Field{
		zap.String("model", c.model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("response_len", len(text)),
	}
	if u := resp.UsageMetadata; u != nil {
		fields = append(fields,
			zap.Int32("input_tokens", u.PromptTokenCount),
			zap.Int32("output_tokens", u.CandidatesTokenCount),
		)
	}
	c.logger.Debug("generation complete", fields...)

	return text, nil
}
