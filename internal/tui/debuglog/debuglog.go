// ABOUTME: File-backed slog logger for the TUI
// ABOUTME: Keeps log output off the terminal while the alt screen is active

package debuglog

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/academix/academix-cli/internal/logger"
)

// FileName is the log file created inside the config directory.
const FileName = "debug.log"

var (
	logFile *os.File
	mu      sync.Mutex
)

// Init opens debug.log in configDir and returns a logger writing to it.
// If configDir is empty, the returned logger discards everything.
func Init(configDir, level string) (*slog.Logger, error) {
	mu.Lock()
	defer mu.Unlock()

	if configDir == "" {
		return logger.New(io.Discard, level, "text"), nil
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return logger.New(io.Discard, level, "text"), err
	}

	f, err := os.OpenFile(filepath.Join(configDir, FileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return logger.New(io.Discard, level, "text"), err
	}

	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	return logger.New(f, level, "text"), nil
}

// Close closes the log file
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}
