// Package align drives the external alignment tool chain: minimap2 for
// long-read mapping, samtools for sorting and per-position depth. The tools
// are black boxes; this package only shapes their command lines and checks
// their outcomes.
package align

import (
	"context"
	"time"

	"github.com/nanoqc/nanoqc/toolexec"
)

// Config holds the external tool configuration shared by the pipeline
// stages.
type Config struct {
	Runner toolexec.Runner
	// Timeout bounds each individual tool invocation. Zero disables the
	// bound; a hung tool then blocks until the caller's context is
	// canceled.
	Timeout time.Duration
}

// Map aligns the combined read stream against the reference with minimap2 in
// nanopore preset, writing SAM output to samPath.
func (c Config) Map(ctx context.Context, refPath, readsPath, samPath string) error {
	_, err := c.Runner.Run(ctx, toolexec.Cmd{
		Tool:       "minimap2",
		Args:       []string{"-ax", "map-ont", refPath, readsPath},
		StdoutPath: samPath,
		Timeout:    c.Timeout,
	})
	return err
}

// Sort converts the alignment table into a sorted BAM container.
func (c Config) Sort(ctx context.Context, samPath, bamPath string) error {
	_, err := c.Runner.Run(ctx, toolexec.Cmd{
		Tool:    "samtools",
		Args:    []string{"sort", samPath, "-o", bamPath},
		Timeout: c.Timeout,
	})
	return err
}

// Depth writes the per-position depth table for the sorted alignments to
// tablePath. The -a flag is mandatory: zero-depth positions must be present
// for horizontal coverage to be computed correctly.
func (c Config) Depth(ctx context.Context, bamPath, tablePath string) error {
	_, err := c.Runner.Run(ctx, toolexec.Cmd{
		Tool:       "samtools",
		Args:       []string{"depth", "-a", bamPath},
		StdoutPath: tablePath,
		Timeout:    c.Timeout,
	})
	return err
}
