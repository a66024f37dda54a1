package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	input := cfg.GetInput()
	assert.Equal(t, "models/credit_model.yaml", input.ModelPath)
	assert.Equal(t, "data/processed_credit.csv", input.DataPath)
	assert.Equal(t, "Credit_Score", input.LabelColumn)

	explain := cfg.GetExplain()
	assert.Equal(t, []string{"Poor", "Standard", "Good"}, explain.ClassNames)
	assert.Equal(t, 100, explain.BackgroundSize)
	assert.Equal(t, uint64(42), explain.Seed)

	plots := cfg.GetPlots()
	assert.True(t, plots.Enabled)
	assert.Equal(t, "png", plots.Format)
	assert.Equal(t, 10, plots.MaxDisplay)

	assert.Equal(t, "outputs/explanation_report.json", cfg.ReportPath())
	assert.False(t, cfg.BestEffortPlots())
	assert.Equal(t, "none", cfg.GetHistory().Type)

	retention, err := cfg.GetDuration("history.retention")
	require.NoError(t, err)
	assert.Equal(t, 720*time.Hour, retention)
	assert.NoError(t, cfg.Validate())
}

func TestNewReadsExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
model:
  path: /srv/models/forest.yaml
explain:
  class_names: "Poor, Standard ,Good"
  background_size: 25
plots:
  format: SVG
pipeline:
  best_effort_plots: true
history:
  type: sqlite
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/models/forest.yaml", cfg.GetInput().ModelPath)
	assert.Equal(t, []string{"Poor", "Standard", "Good"}, cfg.GetExplain().ClassNames)
	assert.Equal(t, 25, cfg.GetExplain().BackgroundSize)
	assert.Equal(t, "svg", cfg.GetPlots().Format)
	assert.True(t, cfg.BestEffortPlots())
	assert.Equal(t, "sqlite", cfg.GetHistory().Type)
	// untouched keys keep their defaults
	assert.Equal(t, "data/processed_credit.csv", cfg.GetInput().DataPath)
}

func TestNewMissingExplicitFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("CREDIT_EXPLAINER_REPORT_PATH", "/tmp/report.json")
	t.Setenv("CREDIT_EXPLAINER_EXPLAIN_SEED", "7")

	cfg, err := New(writeEmptyConfig(t))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/report.json", cfg.ReportPath())
	assert.Equal(t, uint64(7), cfg.GetExplain().Seed)
}

func TestValidate(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())
	cfg.Set("explain.class_names", []string{" , "})
	assert.Error(t, cfg.Validate())

	cfg = NewFromViper(NewEmptyViper())
	cfg.Set("report.path", "")
	assert.Error(t, cfg.Validate())

	cfg = NewFromViper(NewEmptyViper())
	cfg.Set("history.retention", "a month")
	assert.Error(t, cfg.Validate())
}

func TestParseClassNames(t *testing.T) {
	assert.Equal(t, []string{"Poor", "Standard", "Good"}, ParseClassNames([]string{"Poor,Standard", " Good "}))
	assert.Nil(t, ParseClassNames(nil))
}

func writeEmptyConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))
	return path
}
