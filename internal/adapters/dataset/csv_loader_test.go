package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/mikey/credit-explainer/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSplitsLabelColumn(t *testing.T) {
	data := "Age,Annual_Income,Credit_Score,Num_of_Loan\n" +
		"23, 19114.12,Good,4\n" +
		"41,34000,Poor, 1\n"

	matrix, labels, err := NewCSVLoader("Credit_Score").Read(strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, []string{"Age", "Annual_Income", "Num_of_Loan"}, matrix.Columns)
	assert.Equal(t, [][]float64{{23, 19114.12, 4}, {41, 34000, 1}}, matrix.Rows)
	assert.Equal(t, []string{"Good", "Poor"}, labels)
}

func TestReadStripsByteOrderMark(t *testing.T) {
	data := "\xef\xbb\xbfAge,Debt\n1,2\n"
	matrix, labels, err := NewCSVLoader("").Read(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []string{"Age", "Debt"}, matrix.Columns)
	assert.Nil(t, labels)
}

func TestReadHeaderOnly(t *testing.T) {
	matrix, _, err := NewCSVLoader("Credit_Score").Read(strings.NewReader("a,b,Credit_Score\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, matrix.NumRows())
	assert.Equal(t, 2, matrix.NumFeatures())
}

func TestReadRejectsBadInput(t *testing.T) {
	_, _, err := NewCSVLoader("").Read(strings.NewReader(""))
	assert.ErrorContains(t, err, "empty")

	_, _, err = NewCSVLoader("").Read(strings.NewReader("a,b\n1,n/a\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `line 2 column "b"`)
	assert.NotEmpty(t, errors.FlattenHints(err))

	_, _, err = NewCSVLoader("").Read(strings.NewReader("a,a\n1,2\n"))
	assert.True(t, errors.Is(err, core.ErrShapeMismatch))

	_, _, err = NewCSVLoader("").Read(strings.NewReader("a,b\n1,2,3\n"))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := NewCSVLoader("").Load(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrMissingArtifact))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("x,y\n0.5,1\n"), 0o644))

	matrix, _, err := NewCSVLoader("").Load(path)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0.5, 1}}, matrix.Rows)
}
