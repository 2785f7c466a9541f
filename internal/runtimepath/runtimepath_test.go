package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestDir_UsesXDGRuntimeDirWhenSet(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", td)

	got, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}
	if got != td {
		t.Fatalf("Dir() = %q, want %q", got, td)
	}
}

func TestDir_FallbacksWhenXDGRuntimeDirMissing(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "")

	got, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}

	wantRun := fmt.Sprintf("/run/user/%d", os.Getuid())
	wantTmp := filepath.Join(os.TempDir(), fmt.Sprintf("scape-runtime-%d", os.Getuid()))
	if got != wantRun && got != wantTmp {
		t.Fatalf("Dir() = %q, want %q or %q", got, wantRun, wantTmp)
	}
}

func TestIsDir(t *testing.T) {
	td := t.TempDir()
	if !isDir(td) {
		t.Fatalf("isDir(%q) = false, want true", td)
	}
	file := filepath.Join(td, "f")
	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if isDir(file) || isDir(filepath.Join(td, "missing")) {
		t.Fatalf("isDir accepted a file or a missing path")
	}
}

func TestResolveSocket(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", td)

	got, err := ResolveSocket("")
	if err != nil {
		t.Fatalf("ResolveSocket() error: %v", err)
	}
	if want := filepath.Join(td, "scape.sock"); got != want {
		t.Fatalf("ResolveSocket(\"\") = %q, want %q", got, want)
	}

	got, err = ResolveSocket("/tmp/custom.sock")
	if err != nil {
		t.Fatalf("ResolveSocket() error: %v", err)
	}
	if got != "/tmp/custom.sock" {
		t.Fatalf("ResolveSocket() = %q, want configured path", got)
	}
}
