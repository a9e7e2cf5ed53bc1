// Package config provides configuration management for the bulk user tool.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/gaetanof/frontegg-bulk-user-actions/internal/model"
)

var (
	// ErrMissingCredentials indicates the vendor credentials were not configured
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrInvalidRegion indicates an unknown deployment region
	ErrInvalidRegion = errors.New("invalid region")
)

// Config holds all configuration for the bulk user tool.
type Config struct {
	Frontegg    FronteggConfig    `mapstructure:"frontegg"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Identifiers IdentifiersConfig `mapstructure:"identifiers"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Report      ReportConfig      `mapstructure:"report"`
}

// FronteggConfig holds the vendor account and region settings.
type FronteggConfig struct {
	ClientID string `mapstructure:"client_id" validate:"required"`
	APIToken string `mapstructure:"api_token" validate:"required"`
	TenantID string `mapstructure:"tenant_id"`
	Region   string `mapstructure:"region" validate:"required"`
}

// HTTPConfig holds throttling and retry settings for API calls.
type HTTPConfig struct {
	RateLimitDelay time.Duration `mapstructure:"rate_limit_delay" validate:"gte=0"`
	MaxRetries     int           `mapstructure:"max_retries" validate:"gte=0"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
}

// IdentifiersConfig holds the sources of the user identifier list.
type IdentifiersConfig struct {
	List []string `mapstructure:"list"`
	File string   `mapstructure:"file"`
}

// MetricsConfig holds Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ReportConfig holds optional report export settings.
type ReportConfig struct {
	XLSXPath string `mapstructure:"xlsx_path"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Load reads configuration from an optional YAML file and the
// environment. Environment variables keep the original names
// (FRONTEGG_CLIENT_ID, RATE_LIMIT_DELAY, USER_ID_ARRAY, ...) and
// override file values.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)
	bindEnv(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		secondsToDurationHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Identifiers.List = cleanList(cfg.Identifiers.List)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("frontegg.client_id", "")
	v.SetDefault("frontegg.api_token", "")
	v.SetDefault("frontegg.tenant_id", "")
	v.SetDefault("frontegg.region", "EU")

	v.SetDefault("http.rate_limit_delay", "0.5")
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.request_timeout", "30s")

	v.SetDefault("identifiers.list", []string{})
	v.SetDefault("identifiers.file", "")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("report.xlsx_path", "")
}

// bindEnv maps the original environment variable names onto config keys.
// The names predate the config file and stay stable for existing setups.
func bindEnv(v *viper.Viper) {
	binds := map[string]string{
		"frontegg.client_id":    "FRONTEGG_CLIENT_ID",
		"frontegg.api_token":    "FRONTEGG_API_TOKEN",
		"frontegg.tenant_id":    "FRONTEGG_TENANT_ID",
		"frontegg.region":       "FRONTEGG_REGION",
		"http.rate_limit_delay": "RATE_LIMIT_DELAY",
		"http.max_retries":      "MAX_RETRIES",
		"http.request_timeout":  "REQUEST_TIMEOUT",
		"identifiers.list":      "USER_ID_ARRAY",
		"identifiers.file":      "USER_ID_FILE",
		"metrics.enabled":       "METRICS_ENABLED",
		"metrics.port":          "METRICS_PORT",
		"metrics.path":          "METRICS_PATH",
		"logging.level":         "LOG_LEVEL",
		"logging.format":        "LOG_FORMAT",
		"report.xlsx_path":      "REPORT_XLSX_PATH",
	}
	for key, env := range binds {
		_ = v.BindEnv(key, env)
	}
}

// secondsToDurationHook decodes bare numbers into durations counted in
// seconds, so RATE_LIMIT_DELAY=0.5 keeps meaning half a second. Duration
// strings like "500ms" fall through to the standard duration hook.
func secondsToDurationHook() mapstructure.DecodeHookFunc {
	durationType := reflect.TypeOf(time.Duration(0))
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if t != durationType {
			return data, nil
		}
		switch f.Kind() {
		case reflect.String:
			if secs, err := strconv.ParseFloat(strings.TrimSpace(data.(string)), 64); err == nil {
				return time.Duration(secs * float64(time.Second)), nil
			}
		case reflect.Float64:
			return time.Duration(data.(float64) * float64(time.Second)), nil
		case reflect.Int:
			return time.Duration(data.(int)) * time.Second, nil
		}
		return data, nil
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Frontegg.ClientID == "" || c.Frontegg.APIToken == "" {
		return fmt.Errorf("%w: FRONTEGG_CLIENT_ID and FRONTEGG_API_TOKEN must be set", ErrMissingCredentials)
	}

	if _, ok := model.ParseRegion(c.Frontegg.Region); !ok {
		return fmt.Errorf("%w: FRONTEGG_REGION must be one of: EU, US, AP", ErrInvalidRegion)
	}

	if err := getValidator().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		return fmt.Errorf("invalid metrics port: %d", c.Metrics.Port)
	}

	return nil
}

// Region returns the parsed deployment region. Valid after Validate.
func (c *Config) Region() model.Region {
	r, _ := model.ParseRegion(c.Frontegg.Region)
	return r
}

// Credentials returns the vendor credentials bundle.
func (c *Config) Credentials() model.Credentials {
	return model.Credentials{
		ClientID: c.Frontegg.ClientID,
		Secret:   c.Frontegg.APIToken,
		TenantID: strings.TrimSpace(c.Frontegg.TenantID),
	}
}

// IdentifierList returns the configured identifiers. The inline list
// takes precedence; otherwise the identifier file is read. An empty
// result is not an error here, the runner rejects empty batches.
func (c *Config) IdentifierList() ([]string, error) {
	if len(c.Identifiers.List) > 0 {
		return c.Identifiers.List, nil
	}
	if c.Identifiers.File == "" {
		return nil, nil
	}
	return LoadIdentifierFile(c.Identifiers.File)
}

// LoadIdentifierFile reads a YAML file holding a sequence of user IDs
// or emails, one entry per user. Entries are trimmed and blanks dropped.
func LoadIdentifierFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read identifier file: %w", err)
	}

	var ids []string
	if err := yaml.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("failed to parse identifier file: %w", err)
	}

	return cleanList(ids), nil
}

// cleanList trims every entry and drops the empty ones.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
