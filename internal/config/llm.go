package config

const (
	// DefaultModel is used when neither the config file nor GEMINI_MODEL names one.
	DefaultModel = "gemini-3-flash-preview"

	// DefaultTemperature is fixed for every stage.
	DefaultTemperature float32 = 0.7

	// DefaultMaxOutputTokens caps a single generation.
	DefaultMaxOutputTokens = 8192
)

// LLMConfig configures the Gemini adapter.
type LLMConfig struct {
	APIKey          string  `yaml:"api_key"`
	Model           string  `yaml:"model"`
	Temperature     float32 `yaml:"-"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
	Timeout         string  `yaml:"timeout"`
	BaseURL         string  `yaml:"base_url,omitempty"` // endpoint override, e.g. a proxy
}
