package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// OpenDailyLogFile opens (or appends to) dir/app-YYYY-MM-DD.log for day,
// creating dir when needed.
func OpenDailyLogFile(dir string, day time.Time) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir %s: %w", dir, err)
	}
	name := filepath.Join(dir, fmt.Sprintf("app-%s.log", day.Format("2006-01-02")))
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", name, err)
	}
	return f, nil
}

// LogWriter returns stdout, or stdout and the day's log file when dir is set.
// The returned closer is never nil.
func LogWriter(dir string, day time.Time) (io.Writer, io.Closer, error) {
	if dir == "" {
		return os.Stdout, io.NopCloser(nil), nil
	}
	f, err := OpenDailyLogFile(dir, day)
	if err != nil {
		return nil, nil, err
	}
	return io.MultiWriter(os.Stdout, f), f, nil
}
