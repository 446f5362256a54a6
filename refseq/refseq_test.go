package refseq

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocate(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	_, err := Locate(dir)
	assert.Equal(t, ErrNotFound, err)

	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "lambda.fasta"), []byte(">lambda\nACGT\n"), 0644))
	// macOS resource forks and unrelated files must not count as candidates.
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "._lambda.fasta"), []byte{0}, 0644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0644))

	ref, err := Locate(dir)
	require.NoError(t, err)
	assert.Equal(t, "lambda", ref.Name)
	assert.Equal(t, filepath.Join(dir, "lambda.fasta"), ref.Path)

	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "phiX.fasta"), []byte(">phiX\nTTTT\n"), 0644))
	_, err = Locate(dir)
	assert.Equal(t, ErrAmbiguous, err)
}

func TestDescribe(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(dir, "lambda.fasta")
	require.NoError(t, ioutil.WriteFile(path, []byte(">lambda test phage\nACGTACGT\nACGT\n"), 0644))

	ref, err := Locate(dir)
	require.NoError(t, err)
	id, n, err := ref.Describe()
	require.NoError(t, err)
	assert.Equal(t, "lambda", id)
	assert.Equal(t, 12, n)
}
