// Package shell runs the external programs the pipeline relies on (7z,
// pdfinfo, ebook-meta, tesseract, ...).
package shell

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/organize-ebooks/pkg/errcodes"
)

// Result holds the output of a finished command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// OK reports whether the command exited with status 0.
func (r *Result) OK() bool {
	return r.ExitCode == 0
}

// Runner executes external programs. A non-zero exit status is not an error:
// it is reported through Result so callers can look at stderr.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (*Result, error)
	Available(name string) bool
}

// ExecRunner runs programs with os/exec. Commands are never passed through a
// shell.
type ExecRunner struct {
	// Dir is the working directory of every command. Empty means the current
	// directory.
	Dir string
}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) Available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	log := logger.FromContext(ctx)

	path, err := exec.LookPath(name)
	if err != nil {
		return nil, errors.WithStack(errcodes.ToolUnavailable(name))
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = r.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug("running command", logger.Data{"command": name, "args": strings.Join(args, " ")})
	err = cmd.Run()

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// Command failed to start or was killed
			return nil, errors.Wrapf(errcodes.ToolInvocation(name, err.Error()), "run %s", name)
		}
		exitCode = exitErr.ExitCode()
	}

	return &Result{
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}
