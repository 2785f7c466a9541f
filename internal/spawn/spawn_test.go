package spawn

import (
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestEnviron(t *testing.T) {
	got := Environ([]string{"PATH=/bin", "DISPLAY=:0", "BROKEN"}, ":1", map[string]string{"EDITOR": "nvim", "PATH": "/usr/bin"})
	want := []string{"DISPLAY=:1", "EDITOR=nvim", "PATH=/usr/bin"}
	if !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestCommand_ShellDetection(t *testing.T) {
	s := New(slog.New(slog.DiscardHandler))

	tests := []struct {
		command string
		args    []string
		want    []string
	}{
		{"foot", nil, []string{"foot"}},
		{"foot", []string{"-e", "htop"}, []string{"foot", "-e", "htop"}},
		{"foot -e htop", nil, []string{"/bin/sh", "-c", "foot -e htop"}},
		{"  firefox  ", nil, []string{"firefox"}},
	}
	for _, tt := range tests {
		cmd := s.command(tt.command, tt.args, nil)
		if cmd == nil {
			t.Fatalf("%q: expected a command", tt.command)
		}
		if !slices.Equal(cmd.Args, tt.want) {
			t.Fatalf("%q: expected args %v, got %v", tt.command, tt.want, cmd.Args)
		}
		if cmd.SysProcAttr == nil || !cmd.SysProcAttr.Setsid {
			t.Fatalf("%q: expected a new session", tt.command)
		}
	}

	if s.command("   ", nil, nil) != nil {
		t.Fatalf("expected nil command for blank input")
	}
}

func TestSpawn_PassesEnvironment(t *testing.T) {
	out := filepath.Join(t.TempDir(), "env.txt")
	done := make(chan error, 1)
	s := New(slog.New(slog.DiscardHandler))
	s.exited = func(_ string, err error) { done <- err }

	s.Spawn("/bin/sh", []string{"-c", `printf %s "$SCAPE_TEST" > "$1"`, "sh", out}, map[string]string{"SCAPE_TEST": "zoned"})

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("child failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("child did not exit")
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.TrimSpace(string(data)) != "zoned" {
		t.Fatalf("expected env to reach child, got %q", data)
	}
}

func TestSpawn_MissingBinaryReported(t *testing.T) {
	done := make(chan error, 1)
	s := New(slog.New(slog.DiscardHandler))
	s.exited = func(_ string, err error) { done <- err }

	s.Spawn("scape-definitely-not-a-binary", nil, nil)

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected start error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no report for missing binary")
	}
}
