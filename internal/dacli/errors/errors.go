// Package errors defines sentinel errors and wrapping helpers shared
// across the CLI.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// Configuration errors
	ErrConfigNotFound = errors.New("configuration file not found")
	ErrInvalidConfig  = errors.New("invalid configuration file")
	ErrServerNotFound = errors.New("server not found in configuration")
	ErrNoServers      = errors.New("no servers configured")

	// API errors
	ErrEmptyURL       = errors.New("URL cannot be empty")
	ErrInvalidURL     = errors.New("invalid server URL")
	ErrInvalidAPIKey  = errors.New("the API key is invalid")
	ErrAPIConnection  = errors.New("API connection failed")
	ErrInstallFailed  = errors.New("unable to install package")
	ErrStatusTimedOut = errors.New("timed out waiting for the server")

	// Package errors
	ErrNotAPackage  = errors.New("directory does not contain a setup.py file")
	ErrInvalidPath  = errors.New("invalid path")
	ErrFileNotFound = errors.New("file not found")

	// Watcher errors
	ErrWatcherNotRunning = errors.New("watcher not running")
	ErrWatcherClosed     = errors.New("watcher closed")
)

// Wrap wraps an error with additional context
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is checks if the error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As checks if the error can be unwrapped to the target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
