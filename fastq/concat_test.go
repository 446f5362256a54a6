package fastq

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipFragment(t *testing.T, path, payload string) []byte {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(payload))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, ioutil.WriteFile(path, buf.Bytes(), 0644))
	return buf.Bytes()
}

func TestConcatenate(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	// Walk order is lexical per directory: a, b, then sub/c.
	a := gzipFragment(t, filepath.Join(dir, "a.fastq.gz"), "@r1\nACGT\n+\n!!!!\n")
	b := gzipFragment(t, filepath.Join(dir, "b.fastq.gz"), "@r2\nTTTT\n+\n!!!!\n")
	c := gzipFragment(t, filepath.Join(dir, "sub", "c.fastq.gz"), "@r3\nGGGG\n+\n!!!!\n")

	res, err := Concatenate(dir, false)
	require.NoError(t, err)
	assert.False(t, res.Reused)
	assert.Equal(t, 3, res.Fragments)
	assert.NotZero(t, res.Fingerprint)

	var want []byte
	want = append(want, a...)
	want = append(want, b...)
	want = append(want, c...)
	got, err := ioutil.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, int64(len(want)), res.Bytes)
}

func TestConcatenateReuse(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	gzipFragment(t, filepath.Join(dir, "a.fastq.gz"), "@r1\nACGT\n+\n!!!!\n")

	first, err := Concatenate(dir, false)
	require.NoError(t, err)
	firstBytes, err := ioutil.ReadFile(first.Path)
	require.NoError(t, err)

	// New reads landing after the combined file was built must not change
	// the reused output.
	gzipFragment(t, filepath.Join(dir, "z.fastq.gz"), "@r9\nCCCC\n+\n!!!!\n")

	second, err := Concatenate(dir, false)
	require.NoError(t, err)
	assert.True(t, second.Reused)
	secondBytes, err := ioutil.ReadFile(second.Path)
	require.NoError(t, err)
	assert.Equal(t, firstBytes, secondBytes)

	// force invalidates the cache and picks up the new fragment.
	third, err := Concatenate(dir, true)
	require.NoError(t, err)
	assert.False(t, third.Reused)
	assert.Equal(t, 2, third.Fragments)
	thirdBytes, err := ioutil.ReadFile(third.Path)
	require.NoError(t, err)
	assert.True(t, len(thirdBytes) > len(firstBytes))
}

func TestConcatenateNoReads(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	_, err := Concatenate(dir, false)
	assert.Equal(t, ErrNoReads, err)
	_, serr := os.Stat(filepath.Join(dir, CombinedName))
	assert.True(t, os.IsNotExist(serr))
}

func TestConcatenateMissingDir(t *testing.T) {
	_, err := Concatenate("/nonexistent/run/dir", false)
	assert.Error(t, err)
}

func TestConcatenateIgnoresCombinedFile(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	gzipFragment(t, filepath.Join(dir, "a.fastq.gz"), "@r1\nACGT\n+\n!!!!\n")

	first, err := Concatenate(dir, false)
	require.NoError(t, err)
	// A forced rerun must not concatenate the previous combined file into
	// itself; only *.fastq.gz fragments count.
	second, err := Concatenate(dir, true)
	require.NoError(t, err)
	assert.Equal(t, first.Bytes, second.Bytes)
	assert.Equal(t, 1, second.Fragments)
}
