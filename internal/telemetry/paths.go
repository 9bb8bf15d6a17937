// Package telemetry persists a journal of search status summaries to an
// embedded key-value store, so a long-running session's search history can
// be inspected after the fact without needing to keep every log line.
package telemetry

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "kestrel"

// DataDir returns the platform-specific data directory for the engine:
// macOS ~/Library/Application Support/kestrel/, Windows %APPDATA%/kestrel/,
// and Linux $XDG_DATA_HOME or ~/.local/share/kestrel/.
func DataDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		baseDir = filepath.Join(homeDir, "Library", "Application Support")

	case "windows":
		baseDir = os.Getenv("APPDATA")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, "AppData", "Roaming")
		}

	default:
		baseDir = os.Getenv("XDG_DATA_HOME")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, ".local", "share")
		}
	}

	dataDir := filepath.Join(baseDir, appName)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	return dataDir, nil
}

// JournalDir returns the directory for the journal's BadgerDB files.
func JournalDir() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(dataDir, "journal")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
