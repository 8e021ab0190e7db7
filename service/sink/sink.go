// Package sink receives finished batch text in completion order.
package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

// Sink accepts whole results; a result is never interleaved with another.
type Sink interface {
	Emit(ctx context.Context, data []byte) error
	Close(ctx context.Context) error
}

// Writer writes results straight to an io.Writer (stdout by default).
type Writer struct {
	mu      sync.Mutex
	w       io.Writer
	written int64
}

// NewWriter returns a sink writing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (s *Writer) Emit(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.w.Write(data)
	s.written += int64(n)
	if err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

// Written returns the number of bytes emitted so far.
func (s *Writer) Written() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

func (s *Writer) Close(ctx context.Context) error {
	if f, ok := s.w.(interface{ Sync() error }); ok {
		_ = f.Sync()
	}
	return nil
}

// URL buffers results and uploads them to an afs URL on Close.
type URL struct {
	fs     afs.Service
	URL    string
	mu     sync.Mutex
	buffer bytes.Buffer
	closed bool
}

// NewURL returns a sink targeting location (file path, file://, mem://, gs://, s3://...).
func NewURL(fs afs.Service, location string) *URL {
	if fs == nil {
		fs = afs.New()
	}
	return &URL{fs: fs, URL: location}
}

func (s *URL) Emit(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("failed to emit to %v: sink closed", s.URL)
	}
	s.buffer.Write(data)
	return nil
}

func (s *URL) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.fs.Upload(ctx, s.URL, file.DefaultFileOsMode, bytes.NewReader(s.buffer.Bytes())); err != nil {
		return fmt.Errorf("failed to upload results to %v: %w", s.URL, err)
	}
	return nil
}

var (
	_ Sink = (*Writer)(nil)
	_ Sink = (*URL)(nil)
)
