package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/mikey/credit-explainer/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEncoders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "encoders.yaml")
	doc := "Occupation: [Doctor, Engineer, Lawyer]\nPayment_Behaviour: [Low_spent, High_spent]\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	encoders, err := LoadEncoders(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Occupation", "Payment_Behaviour"}, SortedColumns(encoders))

	name, ok := encoders["Occupation"].Decode(2)
	assert.True(t, ok)
	assert.Equal(t, "Lawyer", name)
	assert.Equal(t, "Payment_Behaviour", encoders["Payment_Behaviour"].Column)
}

func TestLoadEncodersEmptyPath(t *testing.T) {
	encoders, err := LoadEncoders("")
	require.NoError(t, err)
	assert.Empty(t, encoders)
}

func TestLoadEncodersMissing(t *testing.T) {
	_, err := LoadEncoders(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.True(t, errors.Is(err, core.ErrMissingArtifact))
}

func TestParseEncodersInvalid(t *testing.T) {
	_, err := ParseEncoders([]byte("- just\n- a list\n"))
	assert.Error(t, err)
}
