package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance. An explicit path must exist;
// otherwise the standard locations are searched and a missing file means defaults.
func New(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/credit-explainer/")
		v.AddConfigPath("$HOME/.credit-explainer")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.SetEnvPrefix("CREDIT_EXPLAINER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Inputs
	v.SetDefault("model.path", "models/credit_model.yaml")
	v.SetDefault("data.path", "data/processed_credit.csv")
	v.SetDefault("data.label_column", "Credit_Score")
	v.SetDefault("data.encoders_path", "")

	// Attribution defaults
	v.SetDefault("explain.class_names", []string{"Poor", "Standard", "Good"})
	v.SetDefault("explain.background_size", 100)
	v.SetDefault("explain.max_instances", 0)
	v.SetDefault("explain.seed", 42)
	v.SetDefault("explain.permutations", 10)
	v.SetDefault("explain.max_exact_features", 10)
	v.SetDefault("explain.workers", 0)

	// Plot defaults
	v.SetDefault("plots.enabled", true)
	v.SetDefault("plots.dir", "outputs/plots")
	v.SetDefault("plots.format", "png")
	v.SetDefault("plots.width_in", 8.0)
	v.SetDefault("plots.height_in", 6.0)
	v.SetDefault("plots.waterfall_instance", 0)
	v.SetDefault("plots.max_display", 10)

	// Pipeline policy
	v.SetDefault("pipeline.best_effort_plots", false)

	// Report defaults
	v.SetDefault("report.path", "outputs/explanation_report.json")

	// History defaults
	v.SetDefault("history.type", "none")
	v.SetDefault("history.sqlite_path", "outputs/history.db")
	v.SetDefault("history.mysql_dsn", "user:password@tcp(localhost:3306)/credit_explainer")
	v.SetDefault("history.retention", "720h")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// Set overrides a configuration value
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
