package di

import (
	"io"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/credit-explainer/internal/adapters/cli"
	"github.com/mikey/credit-explainer/internal/config"
	"github.com/mikey/credit-explainer/internal/core"
	"github.com/mikey/credit-explainer/internal/factory"
	"github.com/mikey/credit-explainer/internal/logging"
	"github.com/mikey/credit-explainer/internal/ports"
)

// BuildContainer creates and configures a dependency injection container.
// Console output of the CLI runner goes to out.
func BuildContainer(cfg *config.Config, out io.Writer) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewExplainerFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewHistoryFactory); err != nil {
		return nil, err
	}

	// Register pipeline collaborators
	if err := container.Provide(func(f *factory.ExplainerFactory) *core.AttributionEngine {
		return f.CreateEngine()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.ExplainerFactory) (core.Renderer, error) {
		return f.CreateRenderer()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.ExplainerFactory) core.ModelLoader {
		return f.CreateModelLoader()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.ExplainerFactory) core.DataLoader {
		return f.CreateDataLoader()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.ExplainerFactory) core.Exporter {
		return f.CreateExporter()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(core.NewSummaryAggregator); err != nil {
		return nil, err
	}

	// Register categorical encoders and pipeline options
	if err := container.Provide(func(f *factory.ExplainerFactory) (core.Encoders, error) {
		return f.LoadEncoders()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.ExplainerFactory, encoders core.Encoders) core.PipelineOptions {
		return f.CreatePipelineOptions(encoders)
	}); err != nil {
		return nil, err
	}

	// Register explanation service
	if err := container.Provide(core.NewExplanationService); err != nil {
		return nil, err
	}

	// Register run history and retention
	if err := container.Provide(func(f *factory.HistoryFactory) (ports.HistoryRepository, error) {
		return f.CreateHistoryRepository()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.HistoryFactory) (time.Duration, error) {
		return f.GetRetention()
	}); err != nil {
		return nil, err
	}

	// Register CLI runner
	if err := container.Provide(func(
		service *core.ExplanationService,
		models core.ModelLoader,
		data core.DataLoader,
		history ports.HistoryRepository,
		encoders core.Encoders,
		retention time.Duration,
		logger *zap.Logger,
	) *cli.Runner {
		return cli.NewRunner(service, models, data, history, encoders, logger, out,
			cfg.GetInput(), cfg.GetExplain().ClassNames, retention)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
