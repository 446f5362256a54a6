// Package summary computes read-quality and read-length distributions from
// the sequencing summary table written by the basecaller, and renders them as
// a multi-page report.
package summary

import (
	"context"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// NumBins is the fixed histogram bin count.
const NumBins = 100

var (
	// ErrNotReady indicates the sequencing summary table has not been
	// written yet. Sequencing may still be in progress; callers should
	// retry later rather than fail.
	ErrNotReady = errors.New("sequencing summary not yet available")
	// ErrNoMetrics indicates a metric slice with no reads in it.
	ErrNoMetrics = errors.New("no reads in metric slice")
)

// ReadMetric is one row of the sequencing summary table. The table carries
// many more columns; only these three drive the report.
type ReadMetric struct {
	MeanQScore float64 `tsv:"mean_qscore_template"`
	Length     int     `tsv:"sequence_length_template"`
	Pass       bool    `tsv:"passes_filtering"`
}

// Column selects which metric a reduction is computed over.
type Column int

const (
	// MeanQScore selects the per-read mean quality score.
	MeanQScore Column = iota
	// SequenceLength selects the per-read sequence length.
	SequenceLength
)

func (c Column) value(m ReadMetric) float64 {
	if c == SequenceLength {
		return float64(m.Length)
	}
	return m.MeanQScore
}

// FormatMedian renders a median for display: quality scores to two decimal
// places, lengths to the nearest integer.
func (c Column) FormatMedian(v float64) string {
	if c == SequenceLength {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

// Distribution is the reduction of one metric slice: a fixed-bin histogram
// plus the slice median.
type Distribution struct {
	// Values holds the selected column for every read in the slice, sorted
	// ascending.
	Values []float64
	// Dividers are the NumBins+1 bin edges.
	Dividers []float64
	// Counts are the NumBins bin frequencies.
	Counts []float64
	// Median of Values, unrounded. Rounding is display-side; see
	// Column.FormatMedian.
	Median float64
}

// Locate finds the sequencing summary table under dir by its fixed filename
// pattern. Its absence is the retryable ErrNotReady, not a hard failure.
func Locate(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "sequencing_summary_*.txt"))
	if err != nil {
		return "", errors.E(err, "scanning for sequencing summary", dir)
	}
	if len(matches) == 0 {
		return "", ErrNotReady
	}
	sort.Strings(matches)
	return matches[0], nil
}

// Load reads every row of the sequencing summary table at path.
func Load(ctx context.Context, path string) (recs []ReadMetric, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "opening sequencing summary", path)
	}
	defer file.CloseAndReport(ctx, in, &err)

	r := tsv.NewReader(in.Reader(ctx))
	r.HasHeaderRow = true
	r.UseHeaderNames = true
	for {
		var m ReadMetric
		if rerr := r.Read(&m); rerr != nil {
			if rerr == io.EOF {
				break
			}
			return nil, errors.E(rerr, "parsing sequencing summary", path)
		}
		recs = append(recs, m)
	}
	return recs, nil
}

// Reduce computes the Distribution of col over recs. With passOnly set, only
// reads that passed quality filtering contribute; the filtered slice is a
// view, recs is not modified.
func Reduce(recs []ReadMetric, col Column, passOnly bool) (Distribution, error) {
	var vals []float64
	for _, m := range recs {
		if passOnly && !m.Pass {
			continue
		}
		vals = append(vals, col.value(m))
	}
	if len(vals) == 0 {
		return Distribution{}, ErrNoMetrics
	}
	sort.Float64s(vals)

	min, max := vals[0], vals[len(vals)-1]
	if min == max {
		// Degenerate slice; widen so the dividers stay strictly increasing.
		max = min + 1
	}
	d := Distribution{
		Values:   vals,
		Dividers: floats.Span(make([]float64, NumBins+1), min, max),
		Median:   median(vals),
	}
	// stat.Histogram requires the top divider to exceed the maximum value;
	// nudge it so the maximum lands in the last bin instead of panicking.
	d.Dividers[NumBins] = math.Nextafter(d.Dividers[NumBins], math.Inf(1))
	d.Counts = stat.Histogram(make([]float64, NumBins), d.Dividers, vals, nil)
	return d, nil
}

// median of a sorted slice, averaging the two middle elements for even
// lengths.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
