package factory

import (
	"fmt"

	"github.com/mikey/credit-explainer/internal/adapters/chart"
	"github.com/mikey/credit-explainer/internal/adapters/dataset"
	"github.com/mikey/credit-explainer/internal/adapters/model"
	"github.com/mikey/credit-explainer/internal/adapters/report"
	"github.com/mikey/credit-explainer/internal/config"
	"github.com/mikey/credit-explainer/internal/core"
	"go.uber.org/zap"
)

// ExplainerFactory creates the explanation pipeline and its collaborators
type ExplainerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewExplainerFactory creates a new explainer factory
func NewExplainerFactory(cfg *config.Config, logger *zap.Logger) *ExplainerFactory {
	return &ExplainerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateEngine creates the attribution engine
func (f *ExplainerFactory) CreateEngine() *core.AttributionEngine {
	explainCfg := f.cfg.GetExplain()
	engine := core.NewAttributionEngine(core.EngineOptions{
		MaxExactFeatures: explainCfg.MaxExactFeatures,
		Permutations:     explainCfg.Permutations,
		Seed:             explainCfg.Seed,
		Workers:          explainCfg.Workers,
	})
	opts := engine.Options()
	f.logger.Debug("Configured attribution engine",
		zap.Int("max_exact_features", opts.MaxExactFeatures),
		zap.Int("permutations", opts.Permutations),
		zap.Uint64("seed", opts.Seed),
		zap.Int("workers", opts.Workers))
	return engine
}

// CreateRenderer creates the plot renderer
func (f *ExplainerFactory) CreateRenderer() (core.Renderer, error) {
	plotsCfg := f.cfg.GetPlots()
	renderer, err := chart.NewRenderer(plotsCfg.Format, plotsCfg.WidthIn, plotsCfg.HeightIn, plotsCfg.MaxDisplay)
	if err != nil {
		return nil, fmt.Errorf("failed to create plot renderer: %w", err)
	}
	return renderer, nil
}

// CreateModelLoader creates the model loader
func (f *ExplainerFactory) CreateModelLoader() core.ModelLoader {
	return model.NewFileLoader()
}

// CreateDataLoader creates the feature data loader
func (f *ExplainerFactory) CreateDataLoader() core.DataLoader {
	return dataset.NewCSVLoader(f.cfg.GetInput().LabelColumn)
}

// CreateExporter creates the report exporter
func (f *ExplainerFactory) CreateExporter() core.Exporter {
	return report.NewJSONExporter()
}

// LoadEncoders loads the categorical encoders named by data.encoders_path
func (f *ExplainerFactory) LoadEncoders() (core.Encoders, error) {
	path := f.cfg.GetInput().EncodersPath
	encoders, err := dataset.LoadEncoders(path)
	if err != nil {
		return nil, err
	}
	if len(encoders) > 0 {
		f.logger.Info("Loaded categorical encoders",
			zap.String("file", path),
			zap.Strings("columns", dataset.SortedColumns(encoders)))
	}
	return encoders, nil
}

// CreatePipelineOptions maps configuration onto pipeline options
func (f *ExplainerFactory) CreatePipelineOptions(encoders core.Encoders) core.PipelineOptions {
	explainCfg := f.cfg.GetExplain()
	plotsCfg := f.cfg.GetPlots()
	return core.PipelineOptions{
		BackgroundSize:    explainCfg.BackgroundSize,
		MaxInstances:      explainCfg.MaxInstances,
		Seed:              explainCfg.Seed,
		PlotsEnabled:      plotsCfg.Enabled,
		PlotDir:           plotsCfg.Dir,
		WaterfallInstance: plotsCfg.WaterfallInstance,
		BestEffortPlots:   f.cfg.BestEffortPlots(),
		ReportPath:        f.cfg.ReportPath(),
		Encoders:          encoders,
	}
}
