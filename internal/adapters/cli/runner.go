package cli

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/mikey/credit-explainer/internal/adapters/dataset"
	"github.com/mikey/credit-explainer/internal/config"
	"github.com/mikey/credit-explainer/internal/core"
	"github.com/mikey/credit-explainer/internal/ports"
	"github.com/pterm/pterm"
	"go.uber.org/zap"
)

// probabilityTolerance bounds how far a probability row may sum from 1
const probabilityTolerance = 1e-6

// Runner executes the operator commands and reports their outcome on the console
type Runner struct {
	service   *core.ExplanationService
	models    core.ModelLoader
	data      core.DataLoader
	history   ports.HistoryRepository
	encoders  core.Encoders
	logger    *zap.Logger
	out       io.Writer
	input     config.InputConfig
	classes   []string
	retention time.Duration
	now       func() time.Time
}

// NewRunner creates a new CLI runner
func NewRunner(
	service *core.ExplanationService,
	models core.ModelLoader,
	data core.DataLoader,
	history ports.HistoryRepository,
	encoders core.Encoders,
	logger *zap.Logger,
	out io.Writer,
	input config.InputConfig,
	classes []string,
	retention time.Duration,
) *Runner {
	return &Runner{
		service:   service,
		models:    models,
		data:      data,
		history:   history,
		encoders:  encoders,
		logger:    logger,
		out:       out,
		input:     input,
		classes:   classes,
		retention: retention,
		now:       time.Now,
	}
}

// CheckData loads the feature data and prints its shape, columns, label
// distribution and encoders
func (r *Runner) CheckData(ctx context.Context) error {
	r.logger.Info("Checking feature data", zap.String("data_path", r.input.DataPath))

	features, labels, err := r.data.Load(r.input.DataPath)
	if err != nil {
		r.logger.Error("Feature data check failed", zap.Error(err))
		return err
	}

	r.section("Feature data")
	r.printf("Path: %s\n", r.input.DataPath)
	r.printf("Shape: (%d, %d)\n", features.NumRows(), features.NumFeatures())
	r.printf("Labels: %d\n\n", len(labels))

	rows := [][]string{{"#", "Column", "Encoded"}}
	for i, col := range features.Columns {
		encoded := ""
		if enc, ok := r.encoders[col]; ok {
			encoded = fmt.Sprintf("%d categories", len(enc.Categories))
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), col, encoded})
	}
	if err := r.table(rows); err != nil {
		return err
	}

	if len(labels) > 0 {
		counts := make(map[string]int)
		for _, l := range labels {
			counts[l]++
		}
		names := make([]string, 0, len(counts))
		for name := range counts {
			names = append(names, name)
		}
		sort.Strings(names)
		dist := [][]string{{"Label", "Count"}}
		for _, name := range names {
			dist = append(dist, []string{name, strconv.Itoa(counts[name])})
		}
		r.printf("\n")
		if err := r.table(dist); err != nil {
			return err
		}
	}

	for _, col := range dataset.SortedColumns(r.encoders) {
		r.printf("Encoder %s: %v\n", col, r.encoders[col].Categories)
	}

	r.logger.Info("Feature data check completed",
		zap.Int("rows", features.NumRows()),
		zap.Int("features", features.NumFeatures()))
	return nil
}

// CheckModel loads the model and verifies it predicts a probability row per
// class on the first data row
func (r *Runner) CheckModel(ctx context.Context) error {
	r.logger.Info("Checking model", zap.String("model_path", r.input.ModelPath))

	model, found, err := r.models.Load(r.input.ModelPath)
	if err != nil {
		r.logger.Error("Model check failed", zap.Error(err))
		return err
	}
	if !found {
		err := errors.Mark(errors.Newf("model file not found: %s", r.input.ModelPath), core.ErrMissingArtifact)
		r.logger.Error("Model check failed", zap.Error(err))
		return err
	}

	features, _, err := r.data.Load(r.input.DataPath)
	if err != nil {
		r.logger.Error("Model check failed", zap.Error(err))
		return err
	}
	if err := core.ValidateModel(model, features, r.classes); err != nil {
		r.logger.Error("Model check failed", zap.Error(err))
		return err
	}

	r.section("Model")
	r.printf("Path: %s\n", r.input.ModelPath)
	r.printf("Classes: %v\n", r.classes)
	if features.NumRows() > 0 {
		preds, err := model.PredictProba(features.Rows[:1])
		if err != nil {
			return errors.Mark(errors.Wrap(err, "probability prediction failed"), core.ErrModelIncompatible)
		}
		var sum float64
		for _, p := range preds[0] {
			sum += p
		}
		if math.Abs(sum-1) > probabilityTolerance {
			err := errors.Mark(errors.Newf("probabilities for row 0 sum to %.6f", sum), core.ErrModelIncompatible)
			r.logger.Error("Model check failed", zap.Error(err))
			return err
		}
		row := [][]string{{"Class", "Probability (row 0)"}}
		for c, name := range r.classes {
			row = append(row, []string{name, fmt.Sprintf("%.4f", preds[0][c])})
		}
		if err := r.table(row); err != nil {
			return err
		}
	}

	r.logger.Info("Model check completed", zap.String("model_path", r.input.ModelPath))
	return nil
}

// Explain runs the explanation pipeline, prints its report and records the run
func (r *Runner) Explain(ctx context.Context) (*core.ExplanationReport, error) {
	r.logger.Info("Running explanation pipeline",
		zap.String("model_path", r.input.ModelPath),
		zap.String("data_path", r.input.DataPath),
		zap.Strings("class_names", r.classes))

	started := r.now()
	report, err := r.service.Explain(ctx, r.input.ModelPath, r.input.DataPath, r.classes)
	r.record(ctx, started, report, err)
	if err != nil {
		r.logger.Error("Explanation pipeline failed", zap.Error(err))
		return report, err
	}

	r.section("Model explanation results")
	r.printf("Attribution shape: %s\n", report.AttributionShape)
	r.printf("Baseline values: %s\n", formatFloats(report.BaselineValues))
	r.printf("Number of features: %d\n", len(report.FeatureNames))
	r.printf("Class names: %v\n", report.ClassNames)

	if report.Importance != nil {
		rows := [][]string{{"Rank", "Feature", "Mean |attribution|"}}
		for k, fi := range report.Importance.Top(10) {
			rows = append(rows, []string{strconv.Itoa(k + 1), fi.Feature, fmt.Sprintf("%.5f", fi.Score)})
		}
		r.printf("\n")
		if err := r.table(rows); err != nil {
			return report, err
		}
	}

	r.printf("\nPlots created:\n")
	for _, path := range report.ArtifactPaths {
		if core.ArtifactExists(path) {
			r.printf("  ok      %s\n", path)
		} else {
			r.printf("  missing %s\n", path)
			r.logger.Warn("Plot not found", zap.String("file", path))
		}
	}
	for _, failure := range report.ArtifactErrors {
		r.printf("  failed  %s\n", failure)
	}
	if core.ArtifactExists(report.ExportPath) {
		r.printf("\nReport exported: %s\n", report.ExportPath)
	} else {
		r.printf("\nReport exported: %s (not found)\n", report.ExportPath)
		r.logger.Warn("Exported report not found", zap.String("file", report.ExportPath))
	}

	r.logger.Info("Explanation pipeline completed",
		zap.String("run_id", report.RunID),
		zap.Ints("shape", report.AttributionShape.Dims()),
		zap.Int("artifacts", len(report.ArtifactPaths)),
		zap.String("report_path", report.ExportPath))
	return report, nil
}

// RunAll runs the data check, the model check and the explanation in order,
// stopping at the first failure
func (r *Runner) RunAll(ctx context.Context) error {
	r.logger.Info("Starting credit score explanation checks")

	if err := r.CheckData(ctx); err != nil {
		return errors.Wrap(err, "feature data check failed")
	}
	if err := r.CheckModel(ctx); err != nil {
		return errors.Wrap(err, "model check failed")
	}
	if _, err := r.Explain(ctx); err != nil {
		return errors.Wrap(err, "model explanation failed")
	}

	r.logger.Info("All checks completed successfully")
	return nil
}

// History prints up to limit recent runs after pruning those past retention
func (r *Runner) History(ctx context.Context, limit int) error {
	if r.retention > 0 {
		if _, err := r.history.Prune(ctx, r.now().Add(-r.retention)); err != nil {
			r.logger.Warn("Failed to prune run history", zap.Error(err))
		}
	}
	records, err := r.history.List(ctx, limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		r.printf("No recorded runs\n")
		return nil
	}
	rows := [][]string{{"Run", "Started", "Status", "Shape", "Report"}}
	for _, rec := range records {
		status := rec.Status
		if rec.Error != "" {
			status += ": " + rec.Error
		}
		rows = append(rows, []string{
			rec.ID,
			rec.StartedAt.Local().Format(time.DateTime),
			status,
			rec.Shape.String(),
			rec.ReportPath,
		})
	}
	return r.table(rows)
}

// record saves the run outcome. History failures are logged and do not fail the run.
func (r *Runner) record(ctx context.Context, started time.Time, report *core.ExplanationReport, runErr error) {
	rec := &core.RunRecord{
		StartedAt:  started,
		FinishedAt: r.now(),
		ModelPath:  r.input.ModelPath,
		DataPath:   r.input.DataPath,
		Status:     core.RunSucceeded,
	}
	if report != nil {
		rec.ID = report.RunID
		rec.ReportPath = report.ExportPath
		rec.Shape = report.AttributionShape
		rec.Baseline = report.BaselineValues
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if runErr != nil {
		rec.Status = core.RunFailed
		rec.Error = runErr.Error()
	}
	if err := r.history.Save(ctx, rec); err != nil {
		r.logger.Error("Failed to record run", zap.Error(err), zap.String("run_id", rec.ID))
	}
}

func (r *Runner) section(title string) {
	r.printf("\n%s\n", pterm.DefaultSection.Sprint(title))
}

func (r *Runner) table(rows [][]string) error {
	out, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		return errors.Wrap(err, "failed to render table")
	}
	r.printf("%s\n", out)
	return nil
}

func (r *Runner) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

func formatFloats(values []float64) string {
	out := "["
	for i, v := range values {
		if i > 0 {
			out += ", "
		}
		out += strconv.FormatFloat(v, 'f', 4, 64)
	}
	return out + "]"
}
