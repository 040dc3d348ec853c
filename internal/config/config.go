package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/RobBrazier/calibre-plugins/internal/api/hardcover"
	"github.com/RobBrazier/calibre-plugins/internal/identifier"
	"github.com/RobBrazier/calibre-plugins/internal/logger"
)

// Config holds all configuration for the application
type Config struct {
	// Logging configuration
	Logging struct {
		Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
		Format string `yaml:"format" validate:"omitempty,oneof=json console"`
		File   string `yaml:"file"`
	} `yaml:"logging"`

	// Hardcover configuration
	Hardcover struct {
		Token     string        `yaml:"token" validate:"required"`
		BaseURL   string        `yaml:"base_url" validate:"required,url"`
		Timeout   time.Duration `yaml:"timeout" validate:"gt=0"`
		RateLimit time.Duration `yaml:"rate_limit" validate:"gt=0"`
		Burst     int           `yaml:"burst" validate:"min=1"`
	} `yaml:"hardcover"`

	// Matching thresholds and limits
	Matching struct {
		Sensitivity       float64 `yaml:"sensitivity" validate:"gt=0,lte=1"`
		Languages         string  `yaml:"languages"`
		TitleTopN         int     `yaml:"title_top_n" validate:"min=1"`
		AuthorTopN        int     `yaml:"author_top_n" validate:"min=1"`
		ContributorWeight float64 `yaml:"contributor_weight" validate:"gt=0"`
	} `yaml:"matching"`

	// Provider settings
	Provider struct {
		Workers int `yaml:"workers" validate:"min=1,max=64"`
	} `yaml:"provider"`

	// Cover cache settings. An empty path keeps covers in memory only.
	Cache struct {
		Path     string        `yaml:"path"`
		CoverTTL time.Duration `yaml:"cover_ttl" validate:"gte=0"`
	} `yaml:"cache"`
}

// Default returns the configuration used when nothing else is set
func Default() *Config {
	cfg := &Config{}
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "console"
	cfg.Hardcover.BaseURL = hardcover.DefaultBaseURL
	cfg.Hardcover.Timeout = hardcover.DefaultTimeout
	cfg.Hardcover.RateLimit = hardcover.DefaultRateLimit
	cfg.Hardcover.Burst = hardcover.DefaultBurst
	cfg.Matching.Sensitivity = 0.7
	cfg.Matching.Languages = identifier.DefaultLanguage
	cfg.Matching.TitleTopN = identifier.DefaultTitleTopN
	cfg.Matching.AuthorTopN = identifier.DefaultAuthorTopN
	cfg.Matching.ContributorWeight = identifier.DefaultContributorWeight
	cfg.Provider.Workers = 4
	cfg.Cache.CoverTTL = 30 * 24 * time.Hour
	return cfg
}

// Load loads configuration from a file (if specified) and environment variables.
// Priority: 1) Environment variables, 2) Config file, 3) Defaults
func Load(configFile string) (*Config, error) {
	cfg, err := LoadUnvalidated(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadUnvalidated is Load without the final validation, for commands that
// do not talk to Hardcover
func LoadUnvalidated(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(cfg, configFile); err != nil {
			return nil, err
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file at path onto cfg. Keys missing from
// the file keep their current value.
func loadFromFile(cfg *Config, path string) error {
	if !filepath.IsAbs(path) {
		abspath, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = abspath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// loadFromEnv loads configuration from environment variables
func loadFromEnv(cfg *Config) error {
	if token := getEnv("HARDCOVER_TOKEN", ""); token != "" {
		cfg.Hardcover.Token = token
	}
	if url := getEnv("HARDCOVER_BASE_URL", ""); url != "" {
		cfg.Hardcover.BaseURL = strings.TrimSuffix(url, "/")
	}
	if level := getEnv("LOG_LEVEL", ""); level != "" {
		cfg.Logging.Level = strings.ToLower(level)
	}
	if format := getEnv("LOG_FORMAT", ""); format != "" {
		cfg.Logging.Format = strings.ToLower(format)
	}
	if file := getEnv("LOG_FILE", ""); file != "" {
		cfg.Logging.File = file
	}
	if languages := getEnv("LANGUAGES", ""); languages != "" {
		cfg.Matching.Languages = languages
	}
	if path := getEnv("CACHE_PATH", ""); path != "" {
		cfg.Cache.Path = path
	}

	var err error
	if cfg.Hardcover.Timeout, err = getDurationFromEnv("HARDCOVER_TIMEOUT", cfg.Hardcover.Timeout); err != nil {
		return err
	}
	if cfg.Matching.Sensitivity, err = getFloat64FromEnv("MATCH_SENSITIVITY", cfg.Matching.Sensitivity); err != nil {
		return err
	}
	if cfg.Provider.Workers, err = getIntFromEnv("WORKERS", cfg.Provider.Workers); err != nil {
		return err
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that all required configuration is present and in range
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("validation failed: %w", err)
	}

	fields := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fields = append(fields, envName(fe.Namespace()))
	}

	msg := "has an invalid value"
	if len(validationErrors) == 1 && validationErrors[0].Tag() == "required" {
		msg = "is required"
	}
	return &ConfigError{
		Field: strings.Join(fields, ", "),
		Msg:   msg,
	}
}

// envName turns "Config.Hardcover.Token" into "HARDCOVER_TOKEN"
func envName(namespace string) string {
	namespace = strings.TrimPrefix(namespace, "Config.")
	var b strings.Builder
	for i, r := range namespace {
		switch {
		case r == '.':
			b.WriteRune('_')
		case r >= 'A' && r <= 'Z' && i > 0 && namespace[i-1] != '.' &&
			!(namespace[i-1] >= 'A' && namespace[i-1] <= 'Z'):
			b.WriteRune('_')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return strings.ToUpper(b.String())
}

// IdentifierOptions converts the matching settings for the resolver
func (c *Config) IdentifierOptions() identifier.Options {
	return identifier.Options{
		IdentifierName:    identifier.DefaultIdentifierName,
		MatchSensitivity:  c.Matching.Sensitivity,
		Languages:         identifier.ParseLanguages(c.Matching.Languages),
		Timeout:           c.Hardcover.Timeout,
		TitleTopN:         c.Matching.TitleTopN,
		AuthorTopN:        c.Matching.AuthorTopN,
		ContributorWeight: c.Matching.ContributorWeight,
	}
}

// ClientConfig converts the Hardcover settings for the transport
func (c *Config) ClientConfig() *hardcover.ClientConfig {
	cc := hardcover.DefaultClientConfig()
	cc.BaseURL = c.Hardcover.BaseURL
	cc.Timeout = c.Hardcover.Timeout
	cc.RateLimit = c.Hardcover.RateLimit
	cc.Burst = c.Hardcover.Burst
	return cc
}

// LoggerConfig converts the logging settings
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:  c.Logging.Level,
		Format: logger.ParseLogFormat(c.Logging.Format),
		Output: os.Stderr,
		File:   logger.FileConfig{Path: c.Logging.File},
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Field + " " + e.Msg
}

// Helper functions for environment variable parsing
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getIntFromEnv(key string, fallback int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback, &ConfigError{Field: key, Msg: fmt.Sprintf("is not an integer: %q", value)}
	}
	return i, nil
}

func getDurationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		// bare numbers are seconds
		if secs, ferr := strconv.ParseFloat(value, 64); ferr == nil {
			return time.Duration(secs * float64(time.Second)), nil
		}
		return fallback, &ConfigError{Field: key, Msg: fmt.Sprintf("is not a duration: %q", value)}
	}
	return d, nil
}

func getFloat64FromEnv(key string, fallback float64) (float64, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback, &ConfigError{Field: key, Msg: fmt.Sprintf("is not a number: %q", value)}
	}
	return f, nil
}
