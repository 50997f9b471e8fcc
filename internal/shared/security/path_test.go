package security

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveWithinValidPath(t *testing.T) {
	base := t.TempDir()

	resolved, err := ResolveWithin(base, "logs", "epa.log")
	if err != nil {
		t.Fatalf("ResolveWithin returned error: %v", err)
	}
	if resolved != filepath.Join(base, "logs", "epa.log") {
		t.Fatalf("unexpected resolved path %s", resolved)
	}

	// ensure path is actually usable
	if err := os.MkdirAll(filepath.Dir(resolved), 0o700); err != nil {
		t.Fatalf("failed to create parent dirs: %v", err)
	}
	if err := os.WriteFile(resolved, []byte("ok"), 0o600); err != nil {
		t.Fatalf("failed to write resolved file: %v", err)
	}
}

func TestResolveWithinEmptyBase(t *testing.T) {
	_, err := ResolveWithin("", "some", "path")
	if err == nil || err.Error() != "base directory is required" {
		t.Fatalf("expected base directory error, got %v", err)
	}
}

func TestResolveWithinEscapes(t *testing.T) {
	base := t.TempDir()

	tests := []struct {
		name  string
		elems []string
	}{
		{"parent", []string{".."}},
		{"double escape", []string{"..", ".."}},
		{"escape with path", []string{"..", "..", "etc", "passwd"}},
		{"relative escape", []string{"a", "..", "..", "etc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveWithin(base, tt.elems...)
			if !errors.Is(err, ErrPathEscape) {
				t.Errorf("expected ErrPathEscape, got: %v", err)
			}
		})
	}
}

func TestResolveWithinCleansSafePaths(t *testing.T) {
	base := t.TempDir()

	tests := []struct {
		name  string
		elems []string
		want  string
	}{
		{"no elements", nil, base},
		{"single dot", []string{"."}, base},
		{"dot dot in middle", []string{"a", "b", "..", "c"}, filepath.Join(base, "a", "c")},
		{"complex", []string{"./a/./b/../c/./d"}, filepath.Join(base, "a", "c", "d")},
		{"absolute element is joined", []string{"/etc/passwd"}, filepath.Join(base, "etc", "passwd")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveWithin(base, tt.elems...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestDataFile(t *testing.T) {
	base := t.TempDir()

	got, err := DataFile(base, "epa.log")
	if err != nil || got != filepath.Join(base, "epa.log") {
		t.Fatalf("DataFile relative = %q, %v", got, err)
	}

	abs := filepath.Join(t.TempDir(), "var", "..", "epa.log")
	got, err = DataFile(base, abs)
	if err != nil || got != filepath.Clean(abs) {
		t.Fatalf("DataFile absolute = %q, %v", got, err)
	}

	if _, err := DataFile(base, "../outside.log"); !errors.Is(err, ErrPathEscape) {
		t.Errorf("expected escape error, got %v", err)
	}
	if _, err := DataFile(base, ""); err == nil || !strings.Contains(err.Error(), "required") {
		t.Errorf("expected required error, got %v", err)
	}
}
