package config

import (
	"errors"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	kenv "github.com/knadh/koanf/providers/env"
	kfile "github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	moderr "github.com/lizzyg/weatherfc/errors"
)

// Config is the root config structure.
type Config struct {
	OpenAI  OpenAIConfig  `koanf:"openai"`
	Weather WeatherConfig `koanf:"weather"`
	Harness HarnessConfig `koanf:"harness"`
}

// OpenAIConfig configures the chat completions endpoint.
type OpenAIConfig struct {
	APIKey      string        `koanf:"api_key"`
	BaseURL     string        `koanf:"base_url"`
	Model       string        `koanf:"model"`
	Timeout     time.Duration `koanf:"timeout"`
	MaxAttempts int           `koanf:"max_attempts"`
}

// WeatherConfig configures the Open-Meteo endpoints.
type WeatherConfig struct {
	GeocodeURL  string        `koanf:"geocode_url"`
	ForecastURL string        `koanf:"forecast_url"`
	Timeout     time.Duration `koanf:"timeout"`
}

// HarnessConfig configures the model comparison run.
type HarnessConfig struct {
	Models       []string      `koanf:"models"`
	Delay        time.Duration `koanf:"delay"`
	CSVPath      string        `koanf:"csv_path"`
	MarkdownPath string        `koanf:"markdown_path"`
	LogPath      string        `koanf:"log_path"`
}

const (
	DefaultModel       = "gpt-4.1-mini-2025-04-14"
	DefaultOpenAIURL   = "https://api.openai.com/v1"
	DefaultGeocodeURL  = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"

	envPrefix = "WEATHERFC__"
)

// Default returns the configuration used when no file or environment overrides are present.
func Default() Config {
	return Config{
		OpenAI: OpenAIConfig{
			BaseURL:     DefaultOpenAIURL,
			Model:       DefaultModel,
			Timeout:     60 * time.Second,
			MaxAttempts: 1,
		},
		Weather: WeatherConfig{
			GeocodeURL:  DefaultGeocodeURL,
			ForecastURL: DefaultForecastURL,
			Timeout:     30 * time.Second,
		},
		Harness: HarnessConfig{
			Models: []string{
				"gpt-4.1-nano-2025-04-14",
				"gpt-4.1-mini-2025-04-14",
				"gpt-4o-mini-2024-07-18",
				"gpt-3.5-turbo-0125",
			},
			Delay:        3 * time.Second,
			CSVPath:      "weather_model_comparison.csv",
			MarkdownPath: "weather_model_comparison.md",
			LogPath:      "weather_comparison_log.txt",
		},
	}
}

var (
	loadOnce sync.Once
	loaded   *Config
	loadErr  error
)

// Load loads configuration from the default locations. Load is safe for repeated calls.
//
// Priority (lowest first):
// 1. built-in defaults
// 2. WEATHERFC_CONFIG if set, else ./config.yaml when it exists
// 3. WEATHERFC__ environment overrides
// 4. OPENAI_API_KEY when no key was configured
func Load() (*Config, error) {
	loadOnce.Do(func() {
		path := os.Getenv("WEATHERFC_CONFIG")
		required := path != ""
		if path == "" {
			path = "config.yaml"
		}
		loaded, loadErr = load(path, required)
	})
	return loaded, loadErr
}

// LoadFile loads configuration from an explicit YAML path, which must exist.
func LoadFile(path string) (*Config, error) {
	return load(path, true)
}

func load(path string, required bool) (*Config, error) {
	// .env never overrides variables that are already set
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(kfile.Provider(path), yaml.Parser()); err != nil {
		if required || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	// Environment overrides: WEATHERFC__OPENAI__MODEL=...
	// Double underscore splits levels.
	if err := k.Load(kenv.Provider(envPrefix, "__", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	resolveEnvVars(&cfg)
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return &cfg, nil
}

// Validate reports a configuration error when the chat API cannot be used at all.
func (c Config) Validate() error {
	if strings.TrimSpace(c.OpenAI.APIKey) == "" {
		return moderr.New(moderr.KindConfiguration, moderr.ErrNotConfigured, "%s", moderr.ErrNotConfigured.Error())
	}
	if c.OpenAI.BaseURL == "" {
		return moderr.New(moderr.KindConfiguration, nil, "openai.base_url is empty")
	}
	if c.Weather.GeocodeURL == "" || c.Weather.ForecastURL == "" {
		return moderr.New(moderr.KindConfiguration, nil, "weather endpoints are not configured")
	}
	return nil
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// resolveEnvVars resolves ${VAR} patterns in config string fields
func resolveEnvVars(cfg *Config) {
	cfg.OpenAI.APIKey = resolveEnvString(cfg.OpenAI.APIKey)
	cfg.OpenAI.BaseURL = resolveEnvString(cfg.OpenAI.BaseURL)
	cfg.OpenAI.Model = resolveEnvString(cfg.OpenAI.Model)
	cfg.Weather.GeocodeURL = resolveEnvString(cfg.Weather.GeocodeURL)
	cfg.Weather.ForecastURL = resolveEnvString(cfg.Weather.ForecastURL)
}

// resolveEnvString replaces ${VAR} with environment variable values
func resolveEnvString(s string) string {
	return envVarRegex.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}
