package core

import (
	"github.com/cockroachdb/errors"
)

// Error categories returned by the explanation pipeline. Adapters mark their
// underlying causes with one of these so callers can test with errors.Is.
var (
	// ErrMissingArtifact indicates the model file or the data file does not exist
	ErrMissingArtifact = errors.New("missing artifact")

	// ErrModelIncompatible indicates the model cannot produce class probabilities
	// of the expected shape
	ErrModelIncompatible = errors.New("model incompatible")

	// ErrShapeMismatch indicates feature dimensionality disagrees between data and model
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrIndexOutOfRange indicates an invalid instance or class selection
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrEmptyData indicates the feature data has no rows to explain or to draw a
	// baseline from
	ErrEmptyData = errors.New("empty data")

	// ErrExportWrite indicates a report or plot file could not be written
	ErrExportWrite = errors.New("export write failed")
)

// markf builds a new error carrying the given category.
func markf(category error, format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), category)
}

// MarkWrapf wraps cause with a message and tags it with category, keeping the
// original cause reachable.
func MarkWrapf(cause, category error, format string, args ...interface{}) error {
	return errors.Mark(errors.Wrapf(cause, format, args...), category)
}
