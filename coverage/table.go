// Package coverage reduces the per-position depth table emitted by
// "samtools depth -a" into horizontal and vertical coverage metrics and
// renders the diagnostic coverage chart.
package coverage

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/willf/bitset"
	"gonum.org/v1/gonum/stat"
)

// ErrEmptyTable indicates a depth table with no rows. Coverage metrics are
// undefined for it; callers must treat this as a failed computation rather
// than dividing by zero.
var ErrEmptyTable = errors.New("empty depth table")

// Table holds a parsed depth table. The depth tool is run in all-positions
// mode, so Positions covers every base of the reference in order and
// Depths[i] is the read depth at Positions[i].
type Table struct {
	// Ref is the reference sequence name, taken from the last row.
	Ref       string
	Positions []int
	Depths    []int
}

// Summary holds the two scalar coverage metrics for a depth table.
type Summary struct {
	// Horizontal is the fraction of positions with depth > 0, in [0,1].
	Horizontal float64
	// Vertical is the mean depth across all positions.
	Vertical float64
	// Positions is the number of rows the metrics were computed over.
	Positions int
}

// ReadTable parses a tab-separated depth table (reference, 1-based position,
// depth) from r. Blank lines are ignored.
func ReadTable(r io.Reader) (Table, error) {
	var t Table
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1024*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		cols := strings.Split(text, "\t")
		if len(cols) < 3 {
			return Table{}, errors.E("depth table: line", line, "has", len(cols), "columns, want 3")
		}
		pos, err := strconv.Atoi(cols[1])
		if err != nil {
			return Table{}, errors.E(err, "depth table: bad position at line", line)
		}
		depth, err := strconv.Atoi(cols[2])
		if err != nil {
			return Table{}, errors.E(err, "depth table: bad depth at line", line)
		}
		t.Ref = cols[0]
		t.Positions = append(t.Positions, pos)
		t.Depths = append(t.Depths, depth)
	}
	if err := sc.Err(); err != nil {
		return Table{}, errors.E(err, "reading depth table")
	}
	return t, nil
}

// ReadTableFile reads and parses the depth table at path.
func ReadTableFile(ctx context.Context, path string) (t Table, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return Table{}, errors.E(err, "opening depth table", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	return ReadTable(in.Reader(ctx))
}

// Summarize reduces the table to its coverage metrics. An empty table yields
// ErrEmptyTable.
func (t Table) Summarize() (Summary, error) {
	n := len(t.Depths)
	if n == 0 {
		return Summary{}, ErrEmptyTable
	}
	covered := bitset.New(uint(n))
	depths := make([]float64, n)
	for i, d := range t.Depths {
		depths[i] = float64(d)
		if d > 0 {
			covered.Set(uint(i))
		}
	}
	return Summary{
		Horizontal: float64(covered.Count()) / float64(n),
		Vertical:   stat.Mean(depths, nil),
		Positions:  n,
	}, nil
}
