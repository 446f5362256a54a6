package report

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

func TestWriteFile(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(dir, "doc.pdf")

	b := NewBuilder(8*vg.Inch, 6*vg.Inch)
	for i := 0; i < 3; i++ {
		p := plot.New()
		p.Title.Text = "page"
		b.Add(p)
	}
	assert.Equal(t, 3, b.Pages())
	require.NoError(t, b.WriteFile(path))

	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, len(data) > 0)
	assert.Equal(t, "%PDF", string(data[:4]))

	// No temp leftovers next to the published document.
	entries, err := ioutil.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFileEmpty(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	b := NewBuilder(8*vg.Inch, 6*vg.Inch)
	assert.Error(t, b.WriteFile(filepath.Join(dir, "doc.pdf")))
}
