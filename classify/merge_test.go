package classify

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReports() []Report {
	return []Report{
		{Rows: []Row{
			{Sample: "barcode01", Fields: []string{"90.00", "9", "9", "U", "0", "unclassified"}},
			{Sample: "barcode01", Fields: []string{"10.00", "1", "1", "R", "1", "root"}},
		}},
		{Rows: []Row{
			{Sample: "barcode02", Fields: []string{"100.00", "4", "4", "U", "0", "unclassified"}},
		}},
	}
}

func TestWithPooled(t *testing.T) {
	merged := Merge(sampleReports())
	final := merged.WithPooled()

	// 2M rows: every per-sample row appears once more under the pooled
	// sentinel, with identical taxon fields.
	require.Len(t, final.Rows, 2*len(merged.Rows))
	type rowKey struct{ sample, fields string }
	seen := map[rowKey]int{}
	for _, row := range final.Rows {
		seen[rowKey{row.Sample, strings.Join(row.Fields, "\t")}]++
	}
	for _, row := range merged.Rows {
		key := rowKey{row.Sample, strings.Join(row.Fields, "\t")}
		assert.Equal(t, 1, seen[key])
		pooled := rowKey{PooledLabel, key.fields}
		assert.Equal(t, 1, seen[pooled])
	}
	for key := range seen {
		assert.True(t, key.sample == PooledLabel || strings.HasPrefix(key.sample, "barcode"),
			"unexpected sample label %q", key.sample)
	}
}

func TestWithPooledEmpty(t *testing.T) {
	final := Merge(nil).WithPooled()
	assert.Empty(t, final.Rows)
}

func TestWriteTable(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(dir, "virus.kraken.txt")

	final := Merge(sampleReports()).WithPooled()
	require.NoError(t, WriteTable(context.Background(), path, final))

	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 6)
	// Tab-separated, no header, no index column; sample label first.
	assert.Equal(t, "barcode01\t90.00\t9\t9\tU\t0\tunclassified", lines[0])
	assert.Equal(t, "all\t90.00\t9\t9\tU\t0\tunclassified", lines[3])
}
