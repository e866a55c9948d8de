// Package daemon provides process management for the background watcher
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPIDFile returns the default PID file location
func DefaultPIDFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dawatch.pid"
	}
	return filepath.Join(home, ".dawatch.pid")
}

// DefaultLogFile returns the default daemon log file location
func DefaultLogFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dawatch.log"
	}
	return filepath.Join(home, ".dawatch.log")
}

// WritePIDFile writes the PID to the specified file
func WritePIDFile(pidFile string, pid int) error {
	dir := filepath.Dir(pidFile)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create PID file directory: %w", err)
	}

	pidStr := fmt.Sprintf("%d\n", pid)
	if err := os.WriteFile(pidFile, []byte(pidStr), 0600); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

// ReadPIDFromFile reads a PID integer from the given pid file.
// Returns os.ErrNotExist if the file does not exist, or a formatted error
// for invalid/empty PID content.
func ReadPIDFromFile(pidFile string) (int, error) {
	//nolint:gosec // G304: PID file path is constructed by application
	data, err := os.ReadFile(pidFile)
	if err != nil {
		return 0, err
	}
	pidStr := strings.TrimSpace(string(data))
	if pidStr == "" {
		return 0, fmt.Errorf("PID file is empty")
	}
	var pid int
	if _, err := fmt.Sscanf(pidStr, "%d", &pid); err != nil {
		return 0, fmt.Errorf("invalid PID in file: %w", err)
	}
	return pid, nil
}
