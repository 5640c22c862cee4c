package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

func writerDSN(path string, busyTimeout time.Duration) (string, error) {
	// Ensure directory exists for file-backed sqlite db
	if !strings.HasPrefix(path, "file:") {
		dir := filepath.Dir(path)
		if dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
	}

	return withParams(path,
		"_foreign_keys=on",
		fmt.Sprintf("_busy_timeout=%d", busyTimeout.Milliseconds()),
		"_journal_mode=WAL",
		"_synchronous=NORMAL",
	), nil
}

func readerDSN(path string, busyTimeout time.Duration) string {
	return withParams(path,
		"mode=ro",
		fmt.Sprintf("_busy_timeout=%d", busyTimeout.Milliseconds()),
	)
}

// withParams appends query parameters, keeping any the caller already put on a
// "file:" URI.
func withParams(path string, params ...string) string {
	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&")
	}
	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&"))
}
