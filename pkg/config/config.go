package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"

	loggerpkg "github.com/minhyannv/agent-stream-go/pkg/logger"
)

// Provider names a chat-completion backend.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderAzure  Provider = "azure"
)

const (
	DefaultModel           = "gpt-4o"
	DefaultAzureAPIVersion = "2024-10-21"
	DefaultMaxTurns        = 25
)

// Config holds all runtime configuration for the assistant.
type Config struct {
	// AzureSelector is the raw USE_AZURE value. Only "true", in any case,
	// selects Azure; UseAzure holds the decision.
	AzureSelector string `env:"USE_AZURE" envDefault:"false"`
	UseAzure      bool

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`

	AzureAPIKey     string `env:"AZURE_OPENAI_API_KEY"`
	AzureEndpoint   string `env:"AZURE_ENDPOINT"`
	AzureDeployment string `env:"AZURE_OPENAI_API_DEPLOYMENT_ID"`
	AzureAPIVersion string `env:"AZURE_OPENAI_API_VERSION" envDefault:"2024-10-21"`

	Model       string  `env:"LLM_MODEL" envDefault:"gpt-4o"`
	Temperature float64 `env:"LLM_TEMPERATURE" envDefault:"0"`

	MaxTurns int    `env:"AGENT_MAX_TURNS" envDefault:"25"`
	Verbose  bool   `env:"AGENT_VERBOSE" envDefault:"false"`
	LogLevel string `env:"AGENT_LOG_LEVEL" envDefault:"error"`
}

// DefaultConfig returns a baseline configuration without side effects.
func DefaultConfig() Config {
	return Config{
		AzureSelector:   "false",
		AzureAPIVersion: DefaultAzureAPIVersion,
		Model:           DefaultModel,
		MaxTurns:        DefaultMaxTurns,
		LogLevel:        loggerpkg.LevelError.String(),
	}
}

// Load seeds the process environment from a .env file when one exists and
// parses the result. It does not validate; call Validate once flags are
// applied.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnvironment(nil)
}

// FromEnvironment parses configuration from environ, or from the process
// environment when environ is nil.
func FromEnvironment(environ map[string]string) (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, &Error{Err: err}
	}
	cfg.UseAzure = strings.EqualFold(strings.TrimSpace(cfg.AzureSelector), "true")
	if _, err := loggerpkg.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, &Error{Err: fmt.Errorf("AGENT_LOG_LEVEL: %w", err)}
	}
	return Normalize(cfg), nil
}

// Normalize sanitizes configuration values and applies defaults.
func Normalize(cfg Config) Config {
	cfg.OpenAIAPIKey = strings.TrimSpace(cfg.OpenAIAPIKey)
	cfg.OpenAIBaseURL = strings.TrimSpace(cfg.OpenAIBaseURL)
	cfg.AzureAPIKey = strings.TrimSpace(cfg.AzureAPIKey)
	cfg.AzureEndpoint = strings.TrimSpace(cfg.AzureEndpoint)
	cfg.AzureDeployment = strings.TrimSpace(cfg.AzureDeployment)
	cfg.AzureAPIVersion = strings.TrimSpace(cfg.AzureAPIVersion)
	cfg.Model = strings.TrimSpace(cfg.Model)

	if cfg.AzureAPIVersion == "" {
		cfg.AzureAPIVersion = DefaultAzureAPIVersion
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = 1
	}
	return cfg
}

// Level is the minimum log level: debug when verbose, otherwise LogLevel.
// An unknown LogLevel falls back to error.
func (c Config) Level() loggerpkg.Level {
	if c.Verbose {
		return loggerpkg.LevelDebug
	}
	lvl, err := loggerpkg.ParseLevel(c.LogLevel)
	if err != nil {
		return loggerpkg.LevelError
	}
	return lvl
}

// Provider reports the backend selected by USE_AZURE.
func (c Config) Provider() Provider {
	if c.UseAzure {
		return ProviderAzure
	}
	return ProviderOpenAI
}

// Validate reports every required option missing for the selected provider.
func (c Config) Validate() error {
	var missing []string
	switch c.Provider() {
	case ProviderAzure:
		if c.AzureAPIKey == "" {
			missing = append(missing, "AZURE_OPENAI_API_KEY")
		}
		if c.AzureEndpoint == "" {
			missing = append(missing, "AZURE_ENDPOINT")
		}
		if c.AzureDeployment == "" {
			missing = append(missing, "AZURE_OPENAI_API_DEPLOYMENT_ID")
		}
	default:
		if c.OpenAIAPIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	}
	if len(missing) > 0 {
		return &Error{Provider: c.Provider(), Missing: missing}
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return &Error{Provider: c.Provider(), Err: fmt.Errorf("LLM_TEMPERATURE must be between 0 and 2, got %g", c.Temperature)}
	}
	return nil
}

// Setting is one displayable configuration entry.
type Setting struct {
	Name  string
	Value string
}

// Summary lists the resolved provider settings for display. Credentials are
// never included.
func (c Config) Summary() []Setting {
	if c.Provider() == ProviderAzure {
		return []Setting{
			{Name: "provider", Value: string(ProviderAzure)},
			{Name: "endpoint", Value: c.AzureEndpoint},
			{Name: "deployment", Value: c.AzureDeployment},
			{Name: "api version", Value: c.AzureAPIVersion},
		}
	}
	settings := []Setting{
		{Name: "provider", Value: string(ProviderOpenAI)},
		{Name: "model", Value: c.Model},
	}
	if c.OpenAIBaseURL != "" {
		settings = append(settings, Setting{Name: "base url", Value: c.OpenAIBaseURL})
	}
	return settings
}
