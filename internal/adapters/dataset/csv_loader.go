package dataset

import (
	"encoding/csv"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/mikey/credit-explainer/internal/core"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CSVLoader reads a processed feature table with a header row. Every column other
// than the label column is a numeric feature, kept in header order.
type CSVLoader struct {
	labelColumn string
}

// NewCSVLoader creates a new CSV loader. An empty labelColumn treats every column as a feature.
func NewCSVLoader(labelColumn string) *CSVLoader {
	return &CSVLoader{labelColumn: labelColumn}
}

// Load opens path and reads it. A missing file fails with core.ErrMissingArtifact.
func (l *CSVLoader) Load(path string) (*core.FeatureMatrix, []string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, core.MarkWrapf(err, core.ErrMissingArtifact, "data file not found: %s", path)
		}
		return nil, nil, errors.Wrapf(err, "failed to open data file %s", path)
	}
	defer file.Close()

	matrix, labels, err := l.Read(file)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to read data file %s", path)
	}
	return matrix, labels, nil
}

// Read parses CSV from r, stripping a leading byte order mark
func (l *CSVLoader) Read(r io.Reader) (*core.FeatureMatrix, []string, error) {
	reader := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, errors.New("data file is empty")
		}
		return nil, nil, errors.Wrap(err, "failed to read header")
	}

	labelIdx := -1
	columns := make([]string, 0, len(header))
	featureIdx := make([]int, 0, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if l.labelColumn != "" && name == l.labelColumn {
			labelIdx = i
			continue
		}
		columns = append(columns, name)
		featureIdx = append(featureIdx, i)
	}

	var rows [][]float64
	var labels []string
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to read line %d", line)
		}
		row := make([]float64, len(featureIdx))
		for k, i := range featureIdx {
			cell := strings.TrimSpace(record[i])
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, errors.WithHint(
					errors.Newf("line %d column %q: %q is not numeric", line, header[i], cell),
					"feature data must be fully encoded; run preprocessing first")
			}
			row[k] = v
		}
		rows = append(rows, row)
		if labelIdx >= 0 {
			labels = append(labels, strings.TrimSpace(record[labelIdx]))
		}
	}

	matrix, err := core.NewFeatureMatrix(columns, rows)
	if err != nil {
		return nil, nil, err
	}
	return matrix, labels, nil
}
