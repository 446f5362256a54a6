package main

/*
qc-report produces the run-level QC artifacts that do not need a reference
sequence: the sequencing-summary histogram report and the combined
per-sample taxonomic classification table.

Both halves tolerate data that has not arrived yet. A missing sequencing
summary table only skips the histogram report, and sample subdirectories
without reads are skipped with a notice, so the command can be re-invoked
while sequencing is still in progress.
*/

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"gonum.org/v1/plot/vg"

	"github.com/nanoqc/nanoqc/classify"
	"github.com/nanoqc/nanoqc/report"
	"github.com/nanoqc/nanoqc/summary"
	"github.com/nanoqc/nanoqc/toolexec"
)

const summaryReportName = "sequencing_summary.pdf"

var (
	dir       = flag.String("dir", ".", "Analysis directory of the sequencing run")
	bacterial = flag.String("bacterial", "", "Also analyze bacterial reads (yes/no); prompted for when unset")
	viralDB   = flag.String("viral-db", "/data/kraken_databases/k2_human-viral_20240111/", "Classifier database for viral-only analysis")
	broadDB   = flag.String("broad-db", "/data/kraken_databases/k2_pluspf_08gb_20231009/", "Classifier database covering viral and bacterial reads")
	timeout   = flag.Duration("timeout", 0, "Upper bound on each classifier invocation; 0 disables")
)

func main() {
	shutdown := grail.Init()
	defer shutdown()
	ctx := vcontext.Background()

	broad := wantBacterial(*bacterial)

	summaryReport(ctx, *dir)

	database, outputName := *viralDB, "virus.kraken.txt"
	if broad {
		database, outputName = *broadDB, "virus_bacteria.kraken.txt"
	}
	opts := classify.Options{
		Database: database,
		Runner:   toolexec.New(),
		Timeout:  *timeout,
	}
	reports, err := classify.RunAll(ctx, filepath.Join(*dir, "fastq_pass"), opts)
	if err != nil {
		log.Fatalf("classifying samples: %v", err)
	}
	if len(reports) == 0 {
		log.Printf("no sample produced a classification report yet; nothing to aggregate")
		return
	}
	merged := classify.Merge(reports).WithPooled()
	if err := classify.WriteTable(ctx, filepath.Join(*dir, outputName), merged); err != nil {
		log.Fatalf("writing classification table: %v", err)
	}
}

// summaryReport renders the sequencing-summary histograms. The report is
// skipped, not failed, when it already exists or when the summary table has
// not been written yet.
func summaryReport(ctx context.Context, dir string) {
	pdfPath := filepath.Join(dir, summaryReportName)
	if _, err := os.Stat(pdfPath); err == nil {
		log.Printf("the %s file has already been created", summaryReportName)
		return
	}
	tablePath, err := summary.Locate(dir)
	if err == summary.ErrNotReady {
		log.Printf("the sequencing summary table is not available yet")
		return
	}
	if err != nil {
		log.Fatalf("locating sequencing summary: %v", err)
	}
	recs, err := summary.Load(ctx, tablePath)
	if err != nil {
		log.Fatalf("loading %s: %v", tablePath, err)
	}
	b := report.NewBuilder(8*vg.Inch, 6*vg.Inch)
	if err := summary.BuildReport(recs, b); err != nil {
		log.Fatalf("building sequencing summary report: %v", err)
	}
	if err := b.WriteFile(pdfPath); err != nil {
		log.Fatalf("writing %s: %v", pdfPath, err)
	}
}

func wantBacterial(answer string) bool {
	if answer == "" {
		fmt.Print("Do you wish to analyze bacterial reads? (yes/y or no/n): ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			log.Fatalf("reading answer: %v", err)
		}
		answer = line
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes", "y":
		return true
	default:
		return false
	}
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n", os.Args[0])
		flag.PrintDefaults()
	}
}
