package dataset

import (
	"io/fs"
	"os"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/mikey/credit-explainer/internal/core"
	"gopkg.in/yaml.v3"
)

// LoadEncoders reads a YAML mapping of column name to ordered category list.
// An empty path yields an empty set.
func LoadEncoders(path string) (core.Encoders, error) {
	if path == "" {
		return core.Encoders{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, core.MarkWrapf(err, core.ErrMissingArtifact, "encoders file not found: %s", path)
		}
		return nil, errors.Wrapf(err, "failed to read encoders file %s", path)
	}
	return ParseEncoders(data)
}

// ParseEncoders decodes an encoders document
func ParseEncoders(data []byte) (core.Encoders, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "failed to decode encoders document")
	}
	encoders := make(core.Encoders, len(raw))
	for column, categories := range raw {
		encoders[column] = &core.CategoryEncoder{Column: column, Categories: categories}
	}
	return encoders, nil
}

// SortedColumns returns the encoded column names in lexical order
func SortedColumns(encoders core.Encoders) []string {
	cols := make([]string, 0, len(encoders))
	for c := range encoders {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}
