// Package toolexec runs the external programs the QC pipeline depends on
// (minimap2, samtools, kraken2) behind a small capability interface so that
// callers get structured exit information and tests can substitute fakes.
package toolexec

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
)

// stderrTailLimit bounds how much tool stderr is retained for error reports.
const stderrTailLimit = 4096

// waitDelay bounds how long Run waits for I/O pipes to drain after the
// context expires. Killing the tool does not kill children it spawned; a
// surviving child inheriting stderr would otherwise keep Run blocked until
// it exits.
const waitDelay = time.Second

// Cmd describes one external tool invocation.
type Cmd struct {
	// Tool is the program name, resolved against PATH.
	Tool string
	// Args are passed verbatim.
	Args []string
	// StdoutPath, if nonempty, redirects the tool's stdout to this file.
	// Tools like samtools depth write their table to stdout.
	StdoutPath string
	// Dir, if nonempty, is the working directory for the invocation.
	Dir string
	// Timeout, if positive, bounds the invocation. Zero means the caller's
	// context is the only bound.
	Timeout time.Duration
}

// Result reports the outcome of a completed invocation.
type Result struct {
	ExitCode int
	Runtime  time.Duration
	// StderrTail holds up to the last stderrTailLimit bytes of stderr.
	StderrTail string
}

// Runner executes external tools. Implementations must block until the tool
// exits and must honor ctx cancellation.
type Runner interface {
	Run(ctx context.Context, cmd Cmd) (Result, error)
}

type localRunner struct{}

// New returns a Runner backed by os/exec on the local machine.
func New() Runner {
	return localRunner{}
}

func (localRunner) Run(ctx context.Context, cmd Cmd) (result Result, err error) {
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}
	c := exec.CommandContext(ctx, cmd.Tool, cmd.Args...)
	c.WaitDelay = waitDelay
	c.Dir = cmd.Dir
	var stderr bytes.Buffer
	c.Stderr = &stderr
	if cmd.StdoutPath != "" {
		var out *os.File
		if out, err = os.Create(cmd.StdoutPath); err != nil {
			return result, errors.Wrapf(err, "%s: creating stdout file", cmd.Tool)
		}
		defer func() {
			if cerr := out.Close(); cerr != nil && err == nil {
				err = errors.Wrapf(cerr, "%s: closing %s", cmd.Tool, cmd.StdoutPath)
			}
		}()
		c.Stdout = out
	}

	log.Printf("exec: %s %s", cmd.Tool, strings.Join(cmd.Args, " "))
	start := time.Now()
	runErr := c.Run()
	result.Runtime = time.Since(start)
	result.StderrTail = tail(stderr.Bytes())

	if runErr == nil {
		return result, nil
	}
	// Prefer reporting cancellation or timeout over the SIGKILL exit the
	// child dies with.
	if ctxErr := ctx.Err(); ctxErr != nil {
		result.ExitCode = -1
		return result, errors.Wrapf(ctxErr, "%s timed out or was canceled after %v", cmd.Tool, result.Runtime)
	}
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		result.ExitCode = exitErr.ExitCode()
		return result, errors.Errorf("%s exited with status %d: %s", cmd.Tool, result.ExitCode, result.StderrTail)
	}
	result.ExitCode = -1
	return result, errors.Wrapf(runErr, "%s failed to start", cmd.Tool)
}

func tail(b []byte) string {
	if len(b) > stderrTailLimit {
		b = b[len(b)-stderrTailLimit:]
	}
	return strings.TrimSpace(string(b))
}
