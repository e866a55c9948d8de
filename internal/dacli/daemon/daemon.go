package daemon

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/jpagh/docassemblecli3/internal/log"
)

// Status describes the state of the background watcher process
type Status struct {
	Running bool
	PID     int
	State   string // "running", "stopped", "dead", "error"
	Message string
	PIDFile string
}

// GetStatus inspects the PID file and the process it names
func GetStatus(pidFile string) Status {
	status := Status{PIDFile: pidFile}

	pid, err := ReadPIDFromFile(pidFile)
	if err != nil {
		if os.IsNotExist(err) {
			status.State = "stopped"
			status.Message = "PID file not found"
		} else {
			status.State = "error"
			status.Message = err.Error()
		}
		return status
	}

	status.PID = pid

	process, err := os.FindProcess(pid)
	if err != nil {
		status.State = "error"
		status.Message = fmt.Sprintf("Failed to find process: %v", err)
		return status
	}

	// Signal 0 checks for existence without disturbing the process
	if err := process.Signal(syscall.Signal(0)); err != nil {
		status.State = "dead"
		if removeErr := os.Remove(pidFile); removeErr != nil && !os.IsNotExist(removeErr) {
			status.Message = fmt.Sprintf("Process not running, failed to clean stale PID file: %v", removeErr)
		} else {
			status.Message = "Process not running (cleaned up stale PID file)"
		}
		return status
	}

	status.Running = true
	status.State = "running"
	status.Message = "Watcher is running"
	return status
}

// Stop terminates the background watcher process
func Stop(pidFile string) error {
	pid, err := ReadPIDFromFile(pidFile)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("watcher is not running (PID file not found)")
		}
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process: %w", err)
	}

	// SIGTERM first so the watcher can flush its pending batch
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send SIGTERM to process %d: %w", pid, err)
	}

	time.Sleep(2 * time.Second)

	if err := process.Signal(syscall.Signal(0)); err == nil {
		log.Info("Process still running, sending SIGKILL...")
		if err := process.Kill(); err != nil {
			return fmt.Errorf("failed to kill process %d: %w", pid, err)
		}
	}

	if err := os.Remove(pidFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}

	log.Info("Watcher stopped successfully")
	return nil
}

// ShowStatus prints a human-readable status report
func ShowStatus(pidFile, logFile string) error {
	status := GetStatus(pidFile)

	log.Info("docassemble watcher status")
	log.Info("==========================================")

	switch status.State {
	case "running":
		log.Info("Status: RUNNING")
		log.Info("Process ID: %d", status.PID)
		log.Info("PID file: %s", pidFile)
		log.Info("Log file: %s", logFile)
		ShowRecentLogs(logFile)
	case "dead":
		log.Info("Status: STOPPED (stale PID file found)")
		log.Info("A previous watcher process was running but is no longer active")
		log.Info("Run 'da watch start' to start a new watcher")
	case "stopped":
		log.Info("Status: NOT RUNNING")
		log.Info("PID file: %s (not found)", pidFile)
		log.Info("Run 'da watch start' to start the watcher")
	default:
		log.Error("Status: ERROR")
		log.Error("%s", status.Message)
	}

	return nil
}
