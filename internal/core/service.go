package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// PipelineOptions configures one explanation run
type PipelineOptions struct {
	BackgroundSize int
	MaxInstances   int
	Seed           uint64

	PlotsEnabled      bool
	PlotDir           string
	WaterfallInstance int
	// BestEffortPlots records plot failures in the report instead of aborting the run
	BestEffortPlots bool

	ReportPath string
	Encoders   Encoders
}

// ExplanationService runs the explanation pipeline: load, validate, attribute,
// aggregate, render and export. It has no logging side effects.
type ExplanationService struct {
	models     ModelLoader
	data       DataLoader
	engine     *AttributionEngine
	aggregator *SummaryAggregator
	renderer   Renderer
	exporter   Exporter
	opts       PipelineOptions

	newID func() string
	now   func() time.Time
}

// NewExplanationService creates a new explanation service
func NewExplanationService(
	models ModelLoader,
	data DataLoader,
	engine *AttributionEngine,
	aggregator *SummaryAggregator,
	renderer Renderer,
	exporter Exporter,
	opts PipelineOptions,
) *ExplanationService {
	return &ExplanationService{
		models:     models,
		data:       data,
		engine:     engine,
		aggregator: aggregator,
		renderer:   renderer,
		exporter:   exporter,
		opts:       opts,
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

// Options returns the pipeline options
func (s *ExplanationService) Options() PipelineOptions {
	return s.opts
}

// Explain loads the model at modelPath and the data at dataPath, explains every
// instance for every class in classNames, and exports the report. When only the
// report write fails, both the report and the error are returned.
func (s *ExplanationService) Explain(ctx context.Context, modelPath, dataPath string, classNames []string) (*ExplanationReport, error) {
	model, found, err := s.models.Load(modelPath)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.WithHint(
			markf(ErrMissingArtifact, "model file not found: %s", modelPath),
			"train and save a model first, or point model.path at an existing file")
	}

	features, _, err := s.data.Load(dataPath)
	if err != nil {
		return nil, err
	}
	if features.NumRows() == 0 {
		return nil, errors.WithHint(
			markf(ErrEmptyData, "data file has no rows: %s", dataPath),
			"the baseline is the mean prediction over data rows, so at least one row is required")
	}
	features = features.Head(s.opts.MaxInstances)

	if err := ValidateModel(model, features, classNames); err != nil {
		return nil, err
	}

	reference := SampleReference(features, s.opts.BackgroundSize, s.opts.Seed)
	tensor, baseline, err := s.engine.Compute(ctx, model, features, reference)
	if err != nil {
		return nil, err
	}
	if got := tensor.Shape().Classes; got != len(classNames) {
		return nil, markf(ErrModelIncompatible, "model predicts %d classes, %d class names given", got, len(classNames))
	}

	ranking, err := s.aggregator.Aggregate(tensor, features.Columns, classNames)
	if err != nil {
		return nil, err
	}

	contents := ReportContents{
		RunID:        s.newID(),
		GeneratedAt:  s.now().UTC(),
		Shape:        tensor.Shape(),
		Baseline:     baseline,
		FeatureNames: features.Columns,
		ClassNames:   classNames,
		Importance:   ranking,
	}
	if s.opts.PlotsEnabled {
		paths, failures, err := s.renderPlots(tensor, features, baseline, classNames)
		if err != nil {
			return nil, err
		}
		contents.ArtifactPaths = paths
		contents.ArtifactErrors = failures
	}

	return s.exporter.Export(contents, s.opts.ReportPath)
}

func (s *ExplanationService) renderPlots(t *AttributionTensor, features *FeatureMatrix, baseline BaselineValues, classNames []string) ([]string, []string, error) {
	var paths, failures []string
	record := func(path string, err error) error {
		if err == nil {
			paths = append(paths, path)
			return nil
		}
		if s.opts.BestEffortPlots {
			failures = append(failures, err.Error())
			return nil
		}
		return err
	}

	ext := s.renderer.Extension()
	summary := filepath.Join(s.opts.PlotDir, "attribution_summary."+ext)
	if err := record(s.renderer.RenderSummary(t, features.Columns, classNames, summary)); err != nil {
		return nil, nil, err
	}

	instance := s.opts.WaterfallInstance
	if t.Shape().Instances == 0 {
		return paths, failures, nil
	}
	var labels []string
	if instance >= 0 && instance < features.NumRows() {
		labels = FeatureValueLabels(features.Columns, features.Rows[instance], s.opts.Encoders)
	}
	for c, name := range classNames {
		dest := filepath.Join(s.opts.PlotDir, fmt.Sprintf("waterfall_instance%d_class%d_%s.%s", instance, c, fileSafe(name), ext))
		path, err := s.renderer.RenderWaterfall(t, instance, c, baseline, dest, WaterfallLabels{
			FeatureLabels: labels,
			ClassName:     name,
		})
		if err := record(path, err); err != nil {
			return nil, nil, err
		}
	}
	return paths, failures, nil
}

// FeatureValueLabels renders "column = value" labels, decoding categorical codes
// through encoders when one exists for the column.
func FeatureValueLabels(columns []string, row []float64, encoders Encoders) []string {
	labels := make([]string, len(columns))
	for j, col := range columns {
		value := fmt.Sprintf("%g", row[j])
		if enc, ok := encoders[col]; ok {
			if name, ok := enc.Decode(row[j]); ok {
				value = name
			}
		}
		labels[j] = col + " = " + value
	}
	return labels
}

// ArtifactExists reports whether a produced artifact is present on disk
func ArtifactExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func fileSafe(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
