package config

import (
	"fmt"
	"strings"
)

// InputConfig locates the model and feature data
type InputConfig struct {
	ModelPath    string
	DataPath     string
	LabelColumn  string
	EncodersPath string
}

// ExplainConfig represents the attribution engine configuration
type ExplainConfig struct {
	ClassNames       []string
	BackgroundSize   int
	MaxInstances     int
	Seed             uint64
	Permutations     int
	MaxExactFeatures int
	Workers          int
}

// PlotsConfig represents the visualization configuration
type PlotsConfig struct {
	Enabled           bool
	Dir               string
	Format            string
	WidthIn           float64
	HeightIn          float64
	WaterfallInstance int
	MaxDisplay        int
}

// HistoryConfig represents the run history configuration
type HistoryConfig struct {
	Type       string
	SQLitePath string
	MySQLDSN   string
	Retention  string
}

// GetInput returns the input locations
func (c *Config) GetInput() InputConfig {
	return InputConfig{
		ModelPath:    c.GetString("model.path"),
		DataPath:     c.GetString("data.path"),
		LabelColumn:  c.GetString("data.label_column"),
		EncodersPath: c.GetString("data.encoders_path"),
	}
}

// GetExplain returns the attribution engine configuration
func (c *Config) GetExplain() ExplainConfig {
	seed := c.GetInt("explain.seed")
	if seed < 0 {
		seed = -seed
	}
	return ExplainConfig{
		ClassNames:       ParseClassNames(c.GetStringSlice("explain.class_names")),
		BackgroundSize:   c.GetInt("explain.background_size"),
		MaxInstances:     c.GetInt("explain.max_instances"),
		Seed:             uint64(seed),
		Permutations:     c.GetInt("explain.permutations"),
		MaxExactFeatures: c.GetInt("explain.max_exact_features"),
		Workers:          c.GetInt("explain.workers"),
	}
}

// GetPlots returns the visualization configuration
func (c *Config) GetPlots() PlotsConfig {
	return PlotsConfig{
		Enabled:           c.GetBool("plots.enabled"),
		Dir:               c.GetString("plots.dir"),
		Format:            strings.ToLower(c.GetString("plots.format")),
		WidthIn:           c.GetFloat64("plots.width_in"),
		HeightIn:          c.GetFloat64("plots.height_in"),
		WaterfallInstance: c.GetInt("plots.waterfall_instance"),
		MaxDisplay:        c.GetInt("plots.max_display"),
	}
}

// GetHistory returns the run history configuration
func (c *Config) GetHistory() HistoryConfig {
	return HistoryConfig{
		Type:       c.GetString("history.type"),
		SQLitePath: c.GetString("history.sqlite_path"),
		MySQLDSN:   c.GetString("history.mysql_dsn"),
		Retention:  c.GetString("history.retention"),
	}
}

// ReportPath returns where the explanation report is exported
func (c *Config) ReportPath() string {
	return c.GetString("report.path")
}

// BestEffortPlots reports whether plot failures are tolerated
func (c *Config) BestEffortPlots() bool {
	return c.GetBool("pipeline.best_effort_plots")
}

// ParseClassNames splits comma separated entries and drops blanks, so both
// a YAML list and a single "Poor,Standard,Good" value are accepted.
func ParseClassNames(values []string) []string {
	var out []string
	for _, v := range values {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

// Validate checks values that would otherwise fail deep inside the pipeline
func (c *Config) Validate() error {
	if len(c.GetExplain().ClassNames) == 0 {
		return fmt.Errorf("explain.class_names must list at least one class")
	}
	if c.ReportPath() == "" {
		return fmt.Errorf("report.path must not be empty")
	}
	if _, err := c.GetDuration("history.retention"); err != nil {
		return fmt.Errorf("invalid history retention: %w", err)
	}
	return nil
}
