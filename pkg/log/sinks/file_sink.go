package sinks

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/arnavsurve/adblogs/pkg/log"
	"github.com/arnavsurve/adblogs/pkg/types"
)

// FileSink writes one JSON object per event. Log text is not HTML escaped so
// translated lines such as "e: 353 -> OK" stay greppable in the run log.
type FileSink struct {
	file *os.File
	buf  *bufio.Writer
	enc  *json.Encoder
}

// NewFileSink opens path for JSON lines output, creating parent directories.
func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating log directory for %q: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening run log %q: %w", path, err)
	}

	buf := bufio.NewWriter(f)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return &FileSink{file: f, buf: buf, enc: enc}, nil
}

func (fs *FileSink) Write(event *log.LogEvent) error {
	entry := make(map[string]any, len(event.Fields)+3)
	for k, v := range event.Fields {
		entry[k] = v
	}
	entry["level"] = log.LevelString(event.Level)
	entry["time"] = event.Timestamp.Format(time.RFC3339Nano)
	entry["message"] = event.Message

	if err := fs.enc.Encode(entry); err != nil {
		return fmt.Errorf("writing run log entry: %w", err)
	}
	// Warnings and errors reach disk right away so a crashed run keeps them.
	if event.Level >= types.WarnLevel {
		return fs.buf.Flush()
	}
	return nil
}

func (fs *FileSink) Close() error {
	if fs.file == nil {
		return nil
	}
	flushErr := fs.buf.Flush()
	closeErr := fs.file.Close()
	fs.file = nil
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
