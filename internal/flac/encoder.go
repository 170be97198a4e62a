package flac

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ruipin/flac-batch-reencode/internal/logger"
)

// EncodeError reports a re-encode that the encoder itself rejected.
// The original file is untouched (verified by the caller of the subprocess
// through the size check below).
type EncodeError struct {
	Path     string
	ExitCode int
	Output   string // captured stdout+stderr
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("flac exited with code %d: %s", e.ExitCode, e.Path)
}

// IntegrityError reports that a failed encode left the original file with a
// different size than before the run. This breaks the core safety guarantee
// (failed jobs never modify originals) and must abort the whole run.
type IntegrityError struct {
	Path       string
	SizeBefore int64
	SizeAfter  int64
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("original modified despite failed encode: %s (%d bytes -> %d bytes)",
		e.Path, e.SizeBefore, e.SizeAfter)
}

// Encoder re-encodes one file per call by invoking the flac binary in-place
// with maximum compression. flac's own temp-file-and-rename behavior is what
// keeps a failed run from touching the original; Encode double-checks that
// after every failure.
type Encoder struct {
	flacPath string
	verify   bool
	runner   Runner
}

// NewEncoder returns an Encoder invoking the given flac binary. When verify
// is set the encoder re-decodes its own output and compares it against the
// source before committing (-V).
func NewEncoder(flacPath string, verify bool) *Encoder {
	return &Encoder{
		flacPath: flacPath,
		verify:   verify,
		runner:   NewRunner(),
	}
}

// args builds the encode command line for one file: force overwrite of the
// original, best compression, optional verify pass, silent output.
func (e *Encoder) args(path string) []string {
	args := []string{path, "--force", "--best"}
	if e.verify {
		args = append(args, "-V")
	}
	args = append(args, "-s")
	return args
}

// Encode runs one re-encode. It spawns exactly one subprocess and never
// retries. A nil return means the encoder exited zero and the original has
// been replaced by the re-encoded file. On non-zero exit it returns
// *EncodeError, or *IntegrityError if the failed run changed the original's
// size.
func (e *Encoder) Encode(ctx context.Context, path string) error {
	before, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat before encode: %w", err)
	}

	res, err := e.runner.Run(ctx, e.flacPath, e.args(path)...)
	if err != nil {
		return fmt.Errorf("run flac: %w", err)
	}

	output := strings.TrimSpace(res.Stdout + res.Stderr)

	if res.ExitCode == 0 {
		// flac runs with -s, so any output at all is unexpected.
		if output != "" {
			logger.Warn("Encoder output was not empty", "file", path, "output", output)
		}
		return nil
	}

	// The job failed; make sure the original really survived. A size change
	// here means the encoder broke its atomic-replace contract.
	after, statErr := os.Stat(path)
	if statErr != nil || after.Size() != before.Size() {
		var sizeAfter int64 = -1
		if statErr == nil {
			sizeAfter = after.Size()
		}
		return &IntegrityError{
			Path:       path,
			SizeBefore: before.Size(),
			SizeAfter:  sizeAfter,
		}
	}

	return &EncodeError{
		Path:     path,
		ExitCode: res.ExitCode,
		Output:   output,
	}
}
