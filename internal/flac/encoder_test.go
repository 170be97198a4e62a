package flac

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// fakeRunner records invocations and delegates to a configurable function.
type fakeRunner struct {
	calls [][]string
	run   func(bin string, args []string) (Result, error)
}

func (f *fakeRunner) Run(_ context.Context, bin string, args ...string) (Result, error) {
	call := append([]string{bin}, args...)
	f.calls = append(f.calls, call)
	return f.run(bin, args)
}

func writeTestFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "track.flac")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write test file: %v", err)
	}
	return path
}

func TestEncoderArgs(t *testing.T) {
	tests := []struct {
		name   string
		verify bool
		want   []string
	}{
		{"with verify", true, []string{"in.flac", "--force", "--best", "-V", "-s"}},
		{"without verify", false, []string{"in.flac", "--force", "--best", "-s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Encoder{flacPath: "flac", verify: tt.verify}
			got := e.args("in.flac")
			if len(got) != len(tt.want) {
				t.Fatalf("args = %v, expected %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("args[%d] = %q, expected %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestEncodeSuccess(t *testing.T) {
	path := writeTestFile(t, "original audio")

	runner := &fakeRunner{run: func(string, []string) (Result, error) {
		return Result{ExitCode: 0}, nil
	}}
	e := &Encoder{flacPath: "flac", verify: true, runner: runner}

	if err := e.Encode(context.Background(), path); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("expected exactly 1 subprocess, got %d", len(runner.calls))
	}
	if runner.calls[0][0] != "flac" || runner.calls[0][1] != path {
		t.Errorf("unexpected invocation: %v", runner.calls[0])
	}
}

func TestEncodeFailureReportsExitCodeAndOutput(t *testing.T) {
	path := writeTestFile(t, "original audio")

	runner := &fakeRunner{run: func(string, []string) (Result, error) {
		return Result{ExitCode: 1, Stderr: "track.flac: ERROR: MD5 signature mismatch"}, nil
	}}
	e := &Encoder{flacPath: "flac", verify: true, runner: runner}

	err := e.Encode(context.Background(), path)

	var encErr *EncodeError
	if !errors.As(err, &encErr) {
		t.Fatalf("expected *EncodeError, got %v", err)
	}
	if encErr.ExitCode != 1 {
		t.Errorf("ExitCode = %d, expected 1", encErr.ExitCode)
	}
	if encErr.Output == "" {
		t.Error("expected captured output in EncodeError")
	}

	// Failed encode must not retry.
	if len(runner.calls) != 1 {
		t.Errorf("expected exactly 1 subprocess, got %d", len(runner.calls))
	}
}

func TestEncodeFailureLeavesOriginalUntouched(t *testing.T) {
	const content = "original audio data"
	path := writeTestFile(t, content)

	runner := &fakeRunner{run: func(string, []string) (Result, error) {
		return Result{ExitCode: 1, Stderr: "boom"}, nil
	}}
	e := &Encoder{flacPath: "flac", verify: true, runner: runner}

	if err := e.Encode(context.Background(), path); err == nil {
		t.Fatal("expected error")
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read original: %v", err)
	}
	if string(got) != content {
		t.Errorf("original content changed: %q", got)
	}
}

func TestEncodeDetectsTruncationAfterFailure(t *testing.T) {
	path := writeTestFile(t, "original audio data")

	runner := &fakeRunner{run: func(_ string, args []string) (Result, error) {
		// Misbehaving encoder: truncates the original and exits non-zero.
		if err := os.WriteFile(args[0], []byte("stub"), 0644); err != nil {
			return Result{}, err
		}
		return Result{ExitCode: 1}, nil
	}}
	e := &Encoder{flacPath: "flac", verify: false, runner: runner}

	err := e.Encode(context.Background(), path)

	var integrityErr *IntegrityError
	if !errors.As(err, &integrityErr) {
		t.Fatalf("expected *IntegrityError, got %v", err)
	}
	if integrityErr.SizeAfter >= integrityErr.SizeBefore {
		t.Errorf("expected truncation, got %d -> %d",
			integrityErr.SizeBefore, integrityErr.SizeAfter)
	}
}

func TestEncodeDetectsDeletionAfterFailure(t *testing.T) {
	path := writeTestFile(t, "original audio data")

	runner := &fakeRunner{run: func(_ string, args []string) (Result, error) {
		if err := os.Remove(args[0]); err != nil {
			return Result{}, err
		}
		return Result{ExitCode: 2}, nil
	}}
	e := &Encoder{flacPath: "flac", verify: false, runner: runner}

	var integrityErr *IntegrityError
	if err := e.Encode(context.Background(), path); !errors.As(err, &integrityErr) {
		t.Fatalf("expected *IntegrityError, got %v", err)
	}
}

func TestEncodeMissingFile(t *testing.T) {
	runner := &fakeRunner{run: func(string, []string) (Result, error) {
		t.Fatal("subprocess should not be spawned for a missing file")
		return Result{}, nil
	}}
	e := &Encoder{flacPath: "flac", verify: true, runner: runner}

	err := e.Encode(context.Background(), filepath.Join(t.TempDir(), "absent.flac"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	var integrityErr *IntegrityError
	if errors.As(err, &integrityErr) {
		t.Error("missing input is an ordinary failure, not an integrity violation")
	}
}

func TestEncodeSpawnFailure(t *testing.T) {
	path := writeTestFile(t, "original audio")

	spawnErr := errors.New("exec: \"flac\": executable file not found in $PATH")
	runner := &fakeRunner{run: func(string, []string) (Result, error) {
		return Result{}, spawnErr
	}}
	e := &Encoder{flacPath: "flac", verify: true, runner: runner}

	err := e.Encode(context.Background(), path)
	if !errors.Is(err, spawnErr) {
		t.Errorf("expected wrapped spawn error, got %v", err)
	}
}
