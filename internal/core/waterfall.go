package core

import (
	"fmt"
	"math"
	"sort"
)

// WaterfallStep is one bar of a waterfall chart, running from Start to End
type WaterfallStep struct {
	Label        string
	Contribution float64
	Start        float64
	End          float64
	// Grouped is set on the bucket that collects the smaller contributions
	Grouped bool
}

// Waterfall describes the path from the baseline to the predicted score of one
// instance and class
type Waterfall struct {
	Class      string
	Instance   int
	Baseline   float64
	Prediction float64
	Steps      []WaterfallStep
}

// BuildWaterfall orders the attributions of one instance and class by descending
// magnitude and accumulates them from baseline[classIndex]. When maxDisplay > 0 and
// there are more features, the remainder is folded into a single "other" step
// and the result never has more than maxDisplay steps.
// Ties keep column order.
func BuildWaterfall(t *AttributionTensor, instanceIndex, classIndex int, baseline BaselineValues, labels []string, maxDisplay int) (*Waterfall, error) {
	shape := t.Shape()
	if instanceIndex < 0 || instanceIndex >= shape.Instances {
		return nil, markf(ErrIndexOutOfRange, "instance index %d outside [0, %d)", instanceIndex, shape.Instances)
	}
	if classIndex < 0 || classIndex >= shape.Classes {
		return nil, markf(ErrIndexOutOfRange, "class index %d outside [0, %d)", classIndex, shape.Classes)
	}
	if len(baseline) != shape.Classes {
		return nil, markf(ErrShapeMismatch, "%d baseline values for %d classes", len(baseline), shape.Classes)
	}
	if labels != nil && len(labels) != shape.Features {
		return nil, markf(ErrShapeMismatch, "%d feature labels for %d features", len(labels), shape.Features)
	}

	contrib := t.Instance(classIndex, instanceIndex)
	order := make([]int, len(contrib))
	for j := range order {
		order[j] = j
	}
	sort.SliceStable(order, func(a, b int) bool {
		return math.Abs(contrib[order[a]]) > math.Abs(contrib[order[b]])
	})

	shown := order
	var rest []int
	if maxDisplay > 0 && len(order) > maxDisplay {
		// keep one slot for the grouped bucket; maxDisplay 1 shows only the bucket
		keep := maxDisplay - 1
		shown, rest = order[:keep], order[keep:]
	}

	w := &Waterfall{Instance: instanceIndex, Baseline: baseline[classIndex]}
	cursor := w.Baseline
	for _, j := range shown {
		label := fmt.Sprintf("feature %d", j)
		if labels != nil {
			label = labels[j]
		}
		w.Steps = append(w.Steps, WaterfallStep{
			Label:        label,
			Contribution: contrib[j],
			Start:        cursor,
			End:          cursor + contrib[j],
		})
		cursor += contrib[j]
	}
	if len(rest) > 0 {
		var sum float64
		for _, j := range rest {
			sum += contrib[j]
		}
		w.Steps = append(w.Steps, WaterfallStep{
			Label:        fmt.Sprintf("%d other features", len(rest)),
			Contribution: sum,
			Start:        cursor,
			End:          cursor + sum,
			Grouped:      true,
		})
		cursor += sum
	}
	w.Prediction = cursor
	return w, nil
}
