package di

import (
	"bytes"
	"testing"
	"time"

	"github.com/mikey/credit-explainer/internal/adapters/cli"
	"github.com/mikey/credit-explainer/internal/adapters/history"
	"github.com/mikey/credit-explainer/internal/config"
	"github.com/mikey/credit-explainer/internal/core"
	"github.com/mikey/credit-explainer/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildContainerResolvesRunner(t *testing.T) {
	cfg := config.NewFromViper(config.NewEmptyViper())
	cfg.Set("history.type", "memory")
	cfg.Set("logging.level", "error")

	container, err := BuildContainer(cfg, &bytes.Buffer{})
	require.NoError(t, err)

	err = container.Invoke(func(runner *cli.Runner, repo ports.HistoryRepository, opts core.PipelineOptions, retention time.Duration) {
		assert.NotNil(t, runner)
		assert.IsType(t, &history.MemoryHistory{}, repo)
		assert.Equal(t, "outputs/plots", opts.PlotDir)
		assert.Equal(t, 720*time.Hour, retention)
	})
	require.NoError(t, err)
}

func TestBuildContainerReportsBadConfig(t *testing.T) {
	cfg := config.NewFromViper(config.NewEmptyViper())
	cfg.Set("plots.format", "gif")

	container, err := BuildContainer(cfg, &bytes.Buffer{})
	require.NoError(t, err)

	err = container.Invoke(func(*cli.Runner) {})
	assert.ErrorContains(t, err, "unsupported plot format")
}
