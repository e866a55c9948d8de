package daemon

import (
	"os"
	"path/filepath"
	"testing"
)

// TestWritePIDFile_Success tests successful PID file writing
func TestWritePIDFile_Success(t *testing.T) {
	tmpDir := t.TempDir()
	pidFile := filepath.Join(tmpDir, "subdir", "test.pid")

	pid := os.Getpid()
	err := WritePIDFile(pidFile, pid)
	if err != nil {
		t.Fatalf("WritePIDFile() failed: %v", err)
	}

	if _, err := os.Stat(pidFile); err != nil {
		t.Errorf("PID file was not created: %v", err)
	}

	readPID, err := ReadPIDFromFile(pidFile)
	if err != nil {
		t.Fatalf("ReadPIDFromFile() failed: %v", err)
	}

	if readPID != pid {
		t.Errorf("ReadPIDFromFile() = %d, want %d", readPID, pid)
	}
}

// TestReadPIDFromFile_NonExistent tests reading non-existent file
func TestReadPIDFromFile_NonExistent(t *testing.T) {
	_, err := ReadPIDFromFile("/nonexistent/file.pid")
	if err == nil {
		t.Error("ReadPIDFromFile() should fail for non-existent file")
	}
	if !os.IsNotExist(err) {
		t.Errorf("Expected os.ErrNotExist, got: %v", err)
	}
}

// TestReadPIDFromFile_EmptyFile tests reading empty file
func TestReadPIDFromFile_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	pidFile := filepath.Join(tmpDir, "empty.pid")

	if err := os.WriteFile(pidFile, []byte{}, 0600); err != nil {
		t.Fatalf("Failed to create empty file: %v", err)
	}

	_, err := ReadPIDFromFile(pidFile)
	if err == nil {
		t.Error("ReadPIDFromFile() should fail for empty file")
	}
}

// TestReadPIDFromFile_InvalidContent tests reading file with invalid content
func TestReadPIDFromFile_InvalidContent(t *testing.T) {
	tmpDir := t.TempDir()
	pidFile := filepath.Join(tmpDir, "invalid.pid")

	testCases := []struct {
		name    string
		content string
	}{
		{"letters", "abc"},
		{"special chars", "!@#$"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := os.WriteFile(pidFile, []byte(tc.content), 0600); err != nil {
				t.Fatalf("Failed to create test file: %v", err)
			}

			_, err := ReadPIDFromFile(pidFile)
			if err == nil {
				t.Errorf("ReadPIDFromFile() should fail for content: %s", tc.content)
			}
		})
	}
}

// TestWritePIDFile_Permissions tests PID file has correct permissions
func TestWritePIDFile_Permissions(t *testing.T) {
	tmpDir := t.TempDir()
	pidFile := filepath.Join(tmpDir, "test.pid")

	err := WritePIDFile(pidFile, 12345)
	if err != nil {
		t.Fatalf("WritePIDFile() failed: %v", err)
	}

	info, err := os.Stat(pidFile)
	if err != nil {
		t.Fatalf("Failed to stat PID file: %v", err)
	}

	mode := info.Mode()
	if mode.Perm() != 0600 {
		t.Errorf("PID file permissions = %o, want 0600", mode.Perm())
	}
}

// TestWritePIDFile_Overwrite tests overwriting existing PID file
func TestWritePIDFile_Overwrite(t *testing.T) {
	tmpDir := t.TempDir()
	pidFile := filepath.Join(tmpDir, "test.pid")

	err := WritePIDFile(pidFile, 111)
	if err != nil {
		t.Fatalf("WritePIDFile() first write failed: %v", err)
	}

	err = WritePIDFile(pidFile, 222)
	if err != nil {
		t.Fatalf("WritePIDFile() second write failed: %v", err)
	}

	readPID, err := ReadPIDFromFile(pidFile)
	if err != nil {
		t.Fatalf("ReadPIDFromFile() failed: %v", err)
	}

	if readPID != 222 {
		t.Errorf("ReadPIDFromFile() = %d, want 222", readPID)
	}
}

// TestGetStatus_NoPIDFile tests status when no watcher was ever started
func TestGetStatus_NoPIDFile(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "missing.pid")

	status := GetStatus(pidFile)
	if status.Running {
		t.Error("GetStatus() reports running watcher with no PID file")
	}
	if status.State != "stopped" {
		t.Errorf("GetStatus().State = %q, want %q", status.State, "stopped")
	}
}

// TestGetStatus_CurrentProcess tests status against a live process
func TestGetStatus_CurrentProcess(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "live.pid")
	if err := WritePIDFile(pidFile, os.Getpid()); err != nil {
		t.Fatalf("WritePIDFile() failed: %v", err)
	}

	status := GetStatus(pidFile)
	if !status.Running {
		t.Error("GetStatus() reports current process as not running")
	}
	if status.PID != os.Getpid() {
		t.Errorf("GetStatus().PID = %d, want %d", status.PID, os.Getpid())
	}
}

// TestGetStatus_StalePIDFile tests cleanup of PID files for dead processes
func TestGetStatus_StalePIDFile(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "stale.pid")
	// PID max on Linux defaults to 4194304; this one should never exist
	if err := WritePIDFile(pidFile, 99999999); err != nil {
		t.Fatalf("WritePIDFile() failed: %v", err)
	}

	status := GetStatus(pidFile)
	if status.Running {
		t.Error("GetStatus() reports dead process as running")
	}
	if status.State != "dead" {
		t.Errorf("GetStatus().State = %q, want %q", status.State, "dead")
	}
	if _, err := os.Stat(pidFile); !os.IsNotExist(err) {
		t.Error("GetStatus() did not clean up stale PID file")
	}
}
