package classify

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
)

// Merge concatenates per-sample reports into one table, preserving report
// and row order.
func Merge(reports []Report) Report {
	var merged Report
	for _, r := range reports {
		merged.Rows = append(merged.Rows, r.Rows...)
	}
	return merged
}

// WithPooled appends a full duplicate of the table with every row's sample
// label overwritten to PooledLabel. The result supports both per-sample
// breakdowns and pooled totals downstream without a consumer-side group-by.
func (r Report) WithPooled() Report {
	out := Report{Rows: make([]Row, 0, 2*len(r.Rows))}
	out.Rows = append(out.Rows, r.Rows...)
	for _, row := range r.Rows {
		out.Rows = append(out.Rows, Row{Sample: PooledLabel, Fields: row.Fields})
	}
	return out
}

// WriteTable writes the table tab-separated to path, no header row, sample
// label first. The file is written next to path and renamed into place on
// completion.
func WriteTable(ctx context.Context, path string, r Report) (err error) {
	tmp := path + ".tmp-" + uuid.New().String()
	out, err := file.Create(ctx, tmp)
	if err != nil {
		return errors.E(err, "creating classification table", path)
	}
	defer func() {
		if err != nil {
			out.Close(ctx) // nolint: errcheck
			os.Remove(tmp) // nolint: errcheck
		}
	}()

	w := tsv.NewWriter(out.Writer(ctx))
	for _, row := range r.Rows {
		w.WriteString(row.Sample)
		for _, f := range row.Fields {
			w.WriteString(f)
		}
		if err = w.EndLine(); err != nil {
			return errors.E(err, "writing classification table", path)
		}
	}
	if err = w.Flush(); err != nil {
		return errors.E(err, "flushing classification table", path)
	}
	if err = out.Close(ctx); err != nil {
		return errors.E(err, "closing classification table", path)
	}
	if err = os.Rename(tmp, path); err != nil {
		return errors.E(err, "publishing classification table", path)
	}
	log.Printf("classification results saved in %s (%d rows)", filepath.Base(path), len(r.Rows))
	return nil
}
