package chart

import (
	"fmt"
	"image/color"
	"io"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/mikey/credit-explainer/internal/core"
	"github.com/mikey/credit-explainer/internal/utils"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

var supportedFormats = map[string]bool{
	"png": true, "svg": true, "pdf": true, "jpg": true, "tif": true, "eps": true,
}

var (
	positiveColor = color.RGBA{R: 0xff, G: 0x00, B: 0x51, A: 0xff}
	negativeColor = color.RGBA{R: 0x00, G: 0x8b, B: 0xe6, A: 0xff}
	groupedColor  = color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
)

// Renderer draws attribution plots with gonum/plot. Parent directories of
// destinations are created when missing.
type Renderer struct {
	format     string
	width      vg.Length
	height     vg.Length
	maxDisplay int
}

// NewRenderer creates a renderer writing images of the given format and size in inches.
// maxDisplay bounds the bars of a waterfall, the rest being grouped.
func NewRenderer(format string, widthIn, heightIn float64, maxDisplay int) (*Renderer, error) {
	if !supportedFormats[format] {
		return nil, errors.Newf("unsupported plot format: %s", format)
	}
	if widthIn <= 0 || heightIn <= 0 {
		return nil, errors.Newf("plot size must be positive, got %gx%g inches", widthIn, heightIn)
	}
	return &Renderer{
		format:     format,
		width:      vg.Length(widthIn) * vg.Inch,
		height:     vg.Length(heightIn) * vg.Inch,
		maxDisplay: maxDisplay,
	}, nil
}

// Extension returns the image file extension
func (r *Renderer) Extension() string {
	return r.format
}

// RenderSummary draws mean |attribution| per feature as grouped horizontal bars,
// one bar per class, most important feature on top.
func (r *Renderer) RenderSummary(t *core.AttributionTensor, featureNames, classNames []string, destination string) (string, error) {
	ranking, err := core.NewSummaryAggregator().Aggregate(t, featureNames, classNames)
	if err != nil {
		return "", err
	}

	p := plot.New()
	p.Title.Text = "Feature importance by class"
	p.X.Label.Text = "mean(|attribution|)"
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	// bottom to top: least important first
	order := make([]int, len(ranking.Overall))
	labels := make([]string, len(ranking.Overall))
	for k, fi := range ranking.Overall {
		pos := len(order) - 1 - k
		order[pos] = fi.Index
		labels[pos] = fi.Feature
	}

	numClasses := len(classNames)
	if len(order) > 0 && numClasses > 0 {
		barWidth := r.height * 0.7 / vg.Length((len(order)+1)*numClasses)
		if barWidth > vg.Points(20) {
			barWidth = vg.Points(20)
		}
		for c, name := range classNames {
			scores := core.MeanAbsAttribution(t, c)
			values := make(plotter.Values, len(order))
			for pos, j := range order {
				values[pos] = scores[j]
			}
			bars, err := plotter.NewBarChart(values, barWidth)
			if err != nil {
				return "", errors.Wrap(err, "failed to build summary bars")
			}
			bars.Horizontal = true
			bars.Color = plotutil.Color(c)
			bars.LineStyle.Width = 0
			bars.Offset = barWidth * vg.Length(float64(numClasses-1)/2-float64(c))
			p.Add(bars)
			p.Legend.Add(name, bars)
		}
	}
	p.NominalY(labels...)

	return r.save(p, destination)
}

// RenderWaterfall draws the cumulative contributions of one instance and class
// from the class baseline to the predicted score. Invalid indices fail with
// core.ErrIndexOutOfRange before anything is written.
func (r *Renderer) RenderWaterfall(t *core.AttributionTensor, instanceIndex, classIndex int, baseline core.BaselineValues, destination string, labels core.WaterfallLabels) (string, error) {
	w, err := core.BuildWaterfall(t, instanceIndex, classIndex, baseline, labels.FeatureLabels, r.maxDisplay)
	if err != nil {
		return "", err
	}
	w.Class = labels.ClassName
	if w.Class == "" {
		w.Class = fmt.Sprintf("class %d", classIndex)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Instance %d, %s", w.Instance, w.Class)
	p.X.Label.Text = fmt.Sprintf("predicted score (baseline %.3f -> %.3f)", w.Baseline, w.Prediction)
	p.Add(plotter.NewGrid())

	n := len(w.Steps)
	names := make([]string, n)
	valueLabels := plotter.XYLabels{XYs: make(plotter.XYs, n), Labels: make([]string, n)}
	for k, step := range w.Steps {
		y := float64(n - 1 - k)
		names[n-1-k] = step.Label

		bar, err := plotter.NewPolygon(plotter.XYs{
			{X: step.Start, Y: y - 0.35},
			{X: step.End, Y: y - 0.35},
			{X: step.End, Y: y + 0.35},
			{X: step.Start, Y: y + 0.35},
		})
		if err != nil {
			return "", errors.Wrap(err, "failed to build waterfall bar")
		}
		switch {
		case step.Grouped:
			bar.Color = groupedColor
		case step.Contribution >= 0:
			bar.Color = positiveColor
		default:
			bar.Color = negativeColor
		}
		bar.LineStyle.Width = 0
		p.Add(bar)

		valueLabels.XYs[k] = plotter.XY{X: step.End, Y: y}
		valueLabels.Labels[k] = fmt.Sprintf(" %+.3f", step.Contribution)
	}
	if n > 0 {
		annotations, err := plotter.NewLabels(valueLabels)
		if err != nil {
			return "", errors.Wrap(err, "failed to build waterfall labels")
		}
		p.Add(annotations)
	}

	top := float64(n) - 0.5
	for _, x := range []float64{w.Baseline, w.Prediction} {
		line, err := plotter.NewLine(plotter.XYs{{X: x, Y: -0.5}, {X: x, Y: top}})
		if err != nil {
			return "", errors.Wrap(err, "failed to build reference line")
		}
		line.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		line.LineStyle.Color = color.Gray{Y: 0x55}
		p.Add(line)
	}
	p.NominalY(names...)

	return r.save(p, destination)
}

func (r *Renderer) save(p *plot.Plot, destination string) (string, error) {
	if filepath.Ext(destination) == "" {
		destination += "." + r.format
	}
	path, err := filepath.Abs(destination)
	if err != nil {
		return "", core.MarkWrapf(err, core.ErrExportWrite, "failed to resolve plot path %s", destination)
	}
	canvas, err := p.WriterTo(r.width, r.height, r.format)
	if err != nil {
		return "", core.MarkWrapf(err, core.ErrExportWrite, "failed to render plot %s", path)
	}
	err = utils.WriteFileAtomic(path, func(w io.Writer) error {
		_, err := canvas.WriteTo(w)
		return err
	})
	if err != nil {
		return "", core.MarkWrapf(err, core.ErrExportWrite, "failed to write plot %s", path)
	}
	return path, nil
}
