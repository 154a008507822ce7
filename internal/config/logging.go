package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// SetupLogFile creates a new timestamped log file and cleans up old
// files. Returns the file handle (caller must close) or error.
func SetupLogFile(dir string, maxFiles int) (*os.File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("podium-%s.log",
		time.Now().Format("2006-01-02T15-04-05")))

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	// Cleanup failure is not fatal; logging still works.
	if err := cleanupOldLogs(dir, maxFiles); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to cleanup old logs: %v\n", err)
	}

	return f, nil
}

// cleanupOldLogs removes oldest log files when count exceeds maxFiles.
func cleanupOldLogs(dir string, maxFiles int) error {
	files, err := filepath.Glob(filepath.Join(dir, "podium-*.log"))
	if err != nil {
		return err
	}
	if len(files) <= maxFiles {
		return nil
	}

	// Timestamped names sort chronologically.
	sort.Strings(files)
	for i := 0; i < len(files)-maxFiles; i++ {
		if err := os.Remove(files[i]); err != nil {
			return fmt.Errorf("remove %s: %w", files[i], err)
		}
	}
	return nil
}
