package intervals

import (
	"fmt"
	"os"
	"path/filepath"
)

// Sink is an append-only destination for record bytes. Every Append must be
// durable before it returns.
type Sink interface {
	Append(p []byte) error
	Close() error
}

// FileSink appends to a file that is never truncated.
type FileSink struct {
	f     *os.File
	fsync bool
}

// OpenFileSink opens path for appending, creating it and its directory if
// needed. With fsync set, every Append is followed by an fsync.
func OpenFileSink(path string, fsync bool) (*FileSink, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("intervals: create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("intervals: open log: %w", err)
	}
	return &FileSink{f: f, fsync: fsync}, nil
}

// Append writes p in full. os.File is unbuffered, so the bytes reach the
// kernel before Append returns.
func (s *FileSink) Append(p []byte) error {
	if _, err := s.f.Write(p); err != nil {
		return fmt.Errorf("intervals: write log: %w", err)
	}
	if s.fsync {
		if err := s.f.Sync(); err != nil {
			return fmt.Errorf("intervals: sync log: %w", err)
		}
	}
	return nil
}

// Path returns the file name the sink writes to.
func (s *FileSink) Path() string {
	return s.f.Name()
}

// Close syncs and closes the file.
func (s *FileSink) Close() error {
	syncErr := s.f.Sync()
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("intervals: close log: %w", err)
	}
	if syncErr != nil {
		return fmt.Errorf("intervals: sync log: %w", syncErr)
	}
	return nil
}

var _ Sink = (*FileSink)(nil)
