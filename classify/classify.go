// Package classify runs the external taxonomic classifier over each sample
// directory, tags its report rows with the sample identifier, and merges the
// tagged reports into the combined classification table.
package classify

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"

	"github.com/nanoqc/nanoqc/fastq"
	"github.com/nanoqc/nanoqc/toolexec"
)

// PooledLabel is the sentinel sample label of the synthesized all-samples
// view in the combined table.
const PooledLabel = "all"

// Row is one classifier report line tagged with the sample it came from. The
// classifier's own columns are carried opaquely.
type Row struct {
	Sample string
	Fields []string
}

// Report is an ordered set of tagged rows.
type Report struct {
	Rows []Row
}

// Options configures classifier invocations.
type Options struct {
	// Database is the classifier reference database path.
	Database string
	Runner   toolexec.Runner
	// Timeout bounds each classifier invocation; zero disables the bound.
	Timeout time.Duration
}

// RunSample aggregates the reads of one sample directory, classifies them
// against the configured database, and returns the report rows tagged with
// the directory's name. The tagged report is also rewritten in place at
// <dir>/<sample>.kreport.txt so it survives as a per-sample artifact.
//
// A sample directory without read fragments yields an empty report and no
// error: in a real-time run the directory may exist before any reads have
// landed. The combined read stream is deleted once classification completes;
// it is large and has no further use.
func RunSample(ctx context.Context, dir string, opts Options) (Report, error) {
	sample := filepath.Base(dir)
	combined, err := fastq.Concatenate(dir, false)
	if err == fastq.ErrNoReads {
		log.Printf("no fastq.gz files found in %s", dir)
		return Report{}, nil
	}
	if err != nil {
		return Report{}, err
	}

	reportPath := filepath.Join(dir, sample+".kreport.txt")
	streamPath := filepath.Join(dir, sample+".kraken")
	_, err = opts.Runner.Run(ctx, toolexec.Cmd{
		Tool: "kraken2",
		Args: []string{
			"--db", opts.Database,
			"--output", streamPath,
			"--report", reportPath,
			combined.Path,
		},
		Timeout: opts.Timeout,
	})
	if err != nil {
		return Report{}, errors.E(err, "classifying sample", sample)
	}

	rows, err := tagReportFile(reportPath, sample)
	if err != nil {
		return Report{}, err
	}
	if err := os.Remove(combined.Path); err != nil {
		return Report{}, errors.E(err, "removing combined read file", combined.Path)
	}
	return Report{Rows: rows}, nil
}

// RunAll classifies every sample subdirectory under root (sorted by name)
// and returns the per-sample reports in order. Empty subdirectories are
// skipped with a notice, not a failure.
func RunAll(ctx context.Context, root string, opts Options) ([]Report, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.E(err, "reading sample root", root)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var reports []Report
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		children, err := os.ReadDir(dir)
		if err != nil {
			return nil, errors.E(err, "reading sample directory", dir)
		}
		if len(children) == 0 {
			log.Printf("skipping empty subdirectory: %s", e.Name())
			continue
		}
		r, err := RunSample(ctx, dir, opts)
		if err != nil {
			return nil, err
		}
		if len(r.Rows) > 0 {
			reports = append(reports, r)
		}
	}
	return reports, nil
}

// tagReportFile prepends sample as the first column of every report line,
// rewriting the file atomically, and returns the parsed rows.
func tagReportFile(path, sample string) (rows []Row, err error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, errors.E(err, "opening classifier report", path)
	}
	defer in.Close() // nolint: errcheck

	tmp := path + ".tmp-" + uuid.New().String()
	out, err := os.Create(tmp)
	if err != nil {
		return nil, errors.E(err, "rewriting classifier report", path)
	}
	defer func() {
		if err != nil {
			out.Close()    // nolint: errcheck
			os.Remove(tmp) // nolint: errcheck
		}
	}()

	w := bufio.NewWriter(out)
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 1024*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		if _, err = w.WriteString(sample + "\t" + line + "\n"); err != nil {
			return nil, errors.E(err, "rewriting classifier report", path)
		}
		rows = append(rows, Row{Sample: sample, Fields: strings.Split(line, "\t")})
	}
	if err = sc.Err(); err != nil {
		return nil, errors.E(err, "reading classifier report", path)
	}
	if err = w.Flush(); err != nil {
		return nil, errors.E(err, "rewriting classifier report", path)
	}
	if err = out.Close(); err != nil {
		return nil, errors.E(err, "rewriting classifier report", path)
	}
	if err = os.Rename(tmp, path); err != nil {
		return nil, errors.E(err, "publishing classifier report", path)
	}
	return rows, nil
}
