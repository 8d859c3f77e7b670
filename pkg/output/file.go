// Package output writes collected device logs to disk.
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
)

// FileName returns device<id>-<HHMMSS>.log for the given time.
func FileName(deviceID string, at time.Time) string {
	return fmt.Sprintf("device%s-%s.log", deviceID, at.Format("150405"))
}

// LogFile receives one log chunk per Write call.
type LogFile struct {
	path string
	file *os.File
	zw   *zstd.Encoder
	w    io.Writer
}

// Create opens path for writing, creating its directory. With compress set
// the content is zstd encoded and ".zst" is appended to the path.
func Create(path string, compress bool) (*LogFile, error) {
	if compress {
		path += ".zst"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating output directory %q: %w", dir, err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening output file %q: %w", path, err)
	}

	lf := &LogFile{path: path, file: f, w: f}
	if compress {
		zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("creating zstd encoder: %w", err)
		}
		lf.zw = zw
		lf.w = zw
	}
	return lf, nil
}

func (l *LogFile) Path() string {
	return l.path
}

// WriteLog writes one chunk of log text.
func (l *LogFile) WriteLog(text string) error {
	if _, err := io.WriteString(l.w, text); err != nil {
		return fmt.Errorf("writing to %q: %w", l.path, err)
	}
	return nil
}

func (l *LogFile) Close() error {
	var firstErr error
	if l.zw != nil {
		firstErr = l.zw.Close()
	}
	if err := l.file.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
