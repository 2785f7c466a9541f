// Package spawn launches client processes for the compositor without waiting
// on them.
package spawn

import (
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"
	"syscall"
)

// Spawner starts detached processes. It implements platform.Spawner.
type Spawner struct {
	logger *slog.Logger
	// Display, when set, is exported as DISPLAY to every child.
	Display string
	// exited is called after a child has been reaped; tests hook it.
	exited func(command string, err error)
}

// New creates a spawner logging to logger.
func New(logger *slog.Logger) *Spawner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Spawner{logger: logger}
}

// Spawn starts command with args. A command given without args that contains
// shell syntax runs through /bin/sh -c. env is added on top of the daemon's
// environment.
func (s *Spawner) Spawn(command string, args []string, env map[string]string) {
	cmd := s.command(command, args, env)
	if cmd == nil {
		s.logger.Warn("spawn ignored empty command")
		return
	}
	if err := cmd.Start(); err != nil {
		s.logger.Error("spawn failed", "command", command, "error", err)
		if s.exited != nil {
			s.exited(command, err)
		}
		return
	}
	s.logger.Info("spawned", "command", command, "pid", cmd.Process.Pid)
	go func() {
		err := cmd.Wait()
		if err != nil {
			s.logger.Debug("spawned process exited", "command", command, "error", err)
		}
		if s.exited != nil {
			s.exited(command, err)
		}
	}()
}

func (s *Spawner) command(command string, args []string, env map[string]string) *exec.Cmd {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil
	}
	var cmd *exec.Cmd
	if len(args) == 0 && strings.ContainsAny(command, " \t|&;<>$") {
		cmd = exec.Command("/bin/sh", "-c", command)
	} else {
		cmd = exec.Command(command, args...)
	}
	cmd.Env = Environ(os.Environ(), s.Display, env)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	return cmd
}

// Environ overlays display and extra onto base. Later keys win; the result
// is sorted for stable output.
func Environ(base []string, display string, extra map[string]string) []string {
	merged := make(map[string]string, len(base)+len(extra)+1)
	for _, kv := range base {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		merged[k] = v
	}
	if display != "" {
		merged["DISPLAY"] = display
	}
	for k, v := range extra {
		merged[k] = v
	}
	out := make([]string, 0, len(merged))
	for k, v := range merged {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
