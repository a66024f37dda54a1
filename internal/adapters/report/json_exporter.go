package report

import (
	"encoding/json"
	"io"
	"io/fs"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/mikey/credit-explainer/internal/core"
	"github.com/mikey/credit-explainer/internal/utils"
)

// JSONExporter writes explanation reports as indented JSON documents.
// Existing files are replaced atomically.
type JSONExporter struct{}

// NewJSONExporter creates a new JSON report exporter
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// Export builds the report and writes it to destinationPath. The report is
// returned even when the write fails.
func (e *JSONExporter) Export(contents core.ReportContents, destinationPath string) (*core.ExplanationReport, error) {
	report := core.NewExplanationReport(contents, destinationPath)
	if destinationPath == "" {
		return report, errors.Mark(errors.New("no report destination configured"), core.ErrExportWrite)
	}
	err := utils.WriteFileAtomic(destinationPath, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	})
	if err != nil {
		return report, core.MarkWrapf(err, core.ErrExportWrite, "failed to write report to %s", destinationPath)
	}
	return report, nil
}

// Read loads a previously exported report
func Read(path string) (*core.ExplanationReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, core.MarkWrapf(err, core.ErrMissingArtifact, "report not found: %s", path)
		}
		return nil, errors.Wrapf(err, "failed to read report %s", path)
	}
	var report core.ExplanationReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, errors.Wrapf(err, "failed to decode report %s", path)
	}
	return &report, nil
}
