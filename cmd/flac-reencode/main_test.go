package main

import (
	"os"
	"path/filepath"
	"testing"
)

func fakeFlac(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flac")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunEmptyFolderExitsZero(t *testing.T) {
	code := run([]string{"-f", t.TempDir(), "--flac", fakeFlac(t)})
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
}

func TestRunMissingFolderExitsOne(t *testing.T) {
	code := run([]string{"-f", filepath.Join(t.TempDir(), "gone")})
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}

func TestRunUnknownFlagExitsTwo(t *testing.T) {
	code := run([]string{"--no-such-flag"})
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
}

func TestRunHelpExitsZero(t *testing.T) {
	code := run([]string{"--help"})
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
}

func TestRunBadConfigExitsOne(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(cfgPath, []byte("folder: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	code := run([]string{"--config", cfgPath, "-f", t.TempDir()})
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}
