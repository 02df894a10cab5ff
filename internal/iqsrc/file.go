package iqsrc

import (
	"fmt"
	"os"
	"time"
)

// replayPacing is the approximate delay between batches a file replay
// source waits, so a recorded capture is replayed at roughly real-time
// speed instead of as fast as the disk can stream it.
const replayPacing = 10 * time.Millisecond

// FileSource replays a raw IQ capture (no header, interleaved I/Q
// bytes) from disk, pacing itself to approximate the real-time rate a
// live radio would deliver samples at.
type FileSource struct {
	f        *os.File
	lastRead time.Time
}

// OpenFile opens path for replay.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("iqsrc: open replay file: %w", err)
	}
	return &FileSource{f: f}, nil
}

// Read satisfies Source. It paces itself to roughly replayPacing
// between calls; io.EOF surfaces unchanged once the file is exhausted,
// and any other read error is reported as io.EOF as well.
func (s *FileSource) Read(p []byte) (int, error) {
	if !s.lastRead.IsZero() {
		if wait := replayPacing - time.Since(s.lastRead); wait > 0 {
			time.Sleep(wait)
		}
	}
	s.lastRead = time.Now()

	n, err := s.f.Read(p)
	if err != nil && err != errEndOfStream {
		return n, errEndOfStream
	}
	return n, err
}

// Close releases the underlying file handle.
func (s *FileSource) Close() error {
	return s.f.Close()
}
