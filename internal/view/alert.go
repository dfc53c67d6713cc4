package view

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Synchronized wraps w so the input loop, background submissions and
// alerts can share it.
func Synchronized(w io.Writer) io.Writer {
	if sw, ok := w.(*syncWriter); ok {
		return sw
	}
	return &syncWriter{w: w}
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// TerminalAlerter prints alerts inline, framed so they stand out from the
// transcript.
type TerminalAlerter struct {
	out io.Writer
}

func NewTerminalAlerter(out io.Writer) *TerminalAlerter {
	return &TerminalAlerter{out: out}
}

func (a *TerminalAlerter) Alert(_ context.Context, title, message string) error {
	_, err := fmt.Fprintf(a.out, "\n!! %s\n!! %s\n", title, message)
	return err
}
