// Package flac drives the external flac and metaflac binaries. The tools
// are opaque capabilities: this package only builds argument lists, spawns
// processes, and interprets exit codes and captured output.
package flac

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// Result is the outcome of one external process invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner abstracts process execution so tests can substitute fakes.
// A non-zero exit status is reported through Result.ExitCode, not the
// error; the error is reserved for spawn problems (missing binary,
// cancelled context).
type Runner interface {
	Run(ctx context.Context, bin string, args ...string) (Result, error)
}

// processRunner runs real subprocesses via os/exec.
type processRunner struct{}

// NewRunner returns the Runner used outside of tests.
func NewRunner() Runner {
	return processRunner{}
}

func (processRunner) Run(ctx context.Context, bin string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, bin, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}

	return res, nil
}
