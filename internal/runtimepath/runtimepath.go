// Package runtimepath locates the per-user directory that holds the scape
// control socket.
package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const socketName = "scape.sock"

// Dir returns the directory the daemon puts its socket in. The session's
// XDG_RUNTIME_DIR wins; without one, the systemd per-user directory is used
// when it exists, and otherwise a private scape directory under the system
// temp dir is created.
func Dir() (string, error) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir, nil
	}
	uid := strconv.Itoa(os.Getuid())
	if dir := filepath.Join("/run/user", uid); isDir(dir) {
		return dir, nil
	}

	dir := filepath.Join(os.TempDir(), "scape-runtime-"+uid)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create runtime dir %s: %w", dir, err)
	}
	// MkdirAll keeps the mode of a directory that already exists.
	if info, err := os.Stat(dir); err == nil && info.Mode().Perm()&0o077 != 0 {
		return "", fmt.Errorf("runtime dir %s is accessible to other users (%s)", dir, info.Mode().Perm())
	}
	return dir, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// SocketPath returns the default control socket path.
func SocketPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, socketName), nil
}

// ResolveSocket returns configured when set, otherwise SocketPath.
func ResolveSocket(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	return SocketPath()
}
