package main

/*
qc-coverage runs the long-read coverage pipeline for one sequencing run: it
aggregates the run's compressed reads, maps them against a reference with
minimap2, derives a per-position depth table via samtools, and renders a
coverage chart annotated with horizontal and vertical coverage.
*/

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"gonum.org/v1/plot/vg"

	"github.com/nanoqc/nanoqc/align"
	"github.com/nanoqc/nanoqc/coverage"
	"github.com/nanoqc/nanoqc/fastq"
	"github.com/nanoqc/nanoqc/refseq"
	"github.com/nanoqc/nanoqc/report"
	"github.com/nanoqc/nanoqc/toolexec"
)

var (
	readsDir = flag.String("reads", ".", "Directory holding the run's fastq.gz read fragments")
	refDir   = flag.String("ref", "", "Directory holding exactly one reference .fasta file; prompted for when unset")
	timeout  = flag.Duration("timeout", 0, "Upper bound on each external tool invocation; 0 disables")
	force    = flag.Bool("force", false, "Rebuild every pipeline artifact even when it already exists")
)

func main() {
	shutdown := grail.Init()
	defer shutdown()
	ctx := vcontext.Background()

	dir := *readsDir
	refDirectory := *refDir
	if refDirectory == "" {
		refDirectory = prompt("Enter the path to the reference sequence directory: ")
	}
	ref, err := refseq.Locate(refDirectory)
	if err != nil {
		log.Fatalf("locating reference: %v", err)
	}
	if id, n, derr := ref.Describe(); derr != nil {
		log.Error.Printf("reference %s not parseable: %v", ref.Path, derr)
	} else {
		log.Printf("reference %s: %s (%d nt)", ref.Name, id, n)
	}

	combined, err := fastq.Concatenate(dir, *force)
	if err != nil {
		log.Fatalf("aggregating reads in %s: %v", dir, err)
	}

	outDir := filepath.Join(dir, ref.Name)
	if err := os.MkdirAll(outDir, 0775); err != nil {
		log.Fatalf("creating output directory %s: %v", outDir, err)
	}
	var (
		samPath   = filepath.Join(outDir, ref.Name+".sam")
		bamPath   = filepath.Join(outDir, ref.Name+".bam")
		tablePath = filepath.Join(outDir, ref.Name+".coverage")
		pdfPath   = filepath.Join(outDir, ref.Name+".pdf")
	)
	cfg := align.Config{Runner: toolexec.New(), Timeout: *timeout}

	// Every stage is keyed on its own output artifact, -force invalidates
	// them all.
	runStage(samPath, func() error { return cfg.Map(ctx, ref.Path, combined.Path, samPath) })
	runStage(bamPath, func() error { return cfg.Sort(ctx, samPath, bamPath) })
	runStage(tablePath, func() error { return cfg.Depth(ctx, bamPath, tablePath) })

	table, err := coverage.ReadTableFile(ctx, tablePath)
	if err != nil {
		log.Fatalf("parsing depth table: %v", err)
	}
	sum, err := table.Summarize()
	if err != nil {
		log.Fatalf("summarizing depth table %s: %v", tablePath, err)
	}
	log.Printf("%s: %s", ref.Name, coverage.Subtitle(sum))

	runStage(pdfPath, func() error {
		p, perr := coverage.Plot(table, sum)
		if perr != nil {
			return perr
		}
		b := report.NewBuilder(8*vg.Inch, 4*vg.Inch)
		b.Add(p)
		return b.WriteFile(pdfPath)
	})
}

// runStage runs fn unless its output artifact already exists.
func runStage(outPath string, fn func() error) {
	if !*force {
		if _, err := os.Stat(outPath); err == nil {
			log.Printf("reusing existing %s", outPath)
			return
		}
	}
	if err := fn(); err != nil {
		log.Fatalf("producing %s: %v", outPath, err)
	}
}

func prompt(msg string) string {
	fmt.Print(msg)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		log.Fatalf("reading answer: %v", err)
	}
	return strings.TrimSpace(line)
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n", os.Args[0])
		flag.PrintDefaults()
	}
}
