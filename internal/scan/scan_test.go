package scan

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// writeFiles creates empty files under root, making parent directories as
// needed, and returns their absolute paths.
func writeFiles(t *testing.T, root string, names ...string) []string {
	t.Helper()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
		paths = append(paths, p)
	}
	return paths
}

func TestDiscoverMatchesMaskRecursively(t *testing.T) {
	root := t.TempDir()
	want := writeFiles(t, root,
		"a.flac",
		"album/01 - track.flac",
		"album/deep/nested.flac",
	)
	writeFiles(t, root,
		"cover.jpg",
		"album/notes.txt",
		"album/track.flac.bak",
	)

	got, err := Discover(root, "*.flac")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("got %d files, expected %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, expected %q", i, got[i], want[i])
		}
	}
}

func TestDiscoverDeterministicOrder(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "c.flac", "a.flac", "b/b.flac")

	first, err := Discover(root, "*.flac")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if !sort.StringsAreSorted(first) {
		t.Errorf("results not sorted: %v", first)
	}

	second, err := Discover(root, "*.flac")
	if err != nil {
		t.Fatalf("Discover (second run): %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("re-enumeration changed result count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("re-enumeration changed order at %d: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestDiscoverEmptyTree(t *testing.T) {
	got, err := Discover(t.TempDir(), "*.flac")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no files, got %v", got)
	}
}

func TestDiscoverMissingRoot(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "absent"), "*.flac")
	if !errors.Is(err, ErrRootNotFound) {
		t.Errorf("expected ErrRootNotFound, got %v", err)
	}
}

func TestDiscoverRootIsFile(t *testing.T) {
	root := t.TempDir()
	p := writeFiles(t, root, "single.flac")[0]

	_, err := Discover(p, "*.flac")
	if !errors.Is(err, ErrNotDirectory) {
		t.Errorf("expected ErrNotDirectory, got %v", err)
	}
}

func TestDiscoverBadMask(t *testing.T) {
	_, err := Discover(t.TempDir(), "[unterminated")
	if !errors.Is(err, ErrBadMask) {
		t.Errorf("expected ErrBadMask, got %v", err)
	}
}
