package testhelpers

import (
	"bytes"
	"io"
	"sync/atomic"
	"testing"
)

// Writer sends each written line to t.Log so server logs only show up for failing tests.
type Writer struct {
	t    testing.TB
	done atomic.Bool
}

// NewWriter returns a Writer that stops accepting output when t finishes.
func NewWriter(t testing.TB) io.Writer {
	w := &Writer{t: t, done: atomic.Bool{}}
	t.Cleanup(func() { w.done.Store(true) })
	return w
}

// Write logs p line by line. Writing after the test has finished panics, which points at a server or goroutine that
// outlived its test.
func (w *Writer) Write(p []byte) (int, error) {
	if w.done.Load() {
		panic("testhelpers: log written after the test finished, is the server shut down in t.Cleanup?")
	}
	for line := range bytes.Lines(p) {
		if line = bytes.TrimRight(line, "\r\n"); len(line) > 0 {
			w.t.Log(string(line))
		}
	}
	return len(p), nil
}
