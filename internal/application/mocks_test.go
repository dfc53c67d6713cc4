package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"tutor-voice/internal/application"
	"tutor-voice/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockCapturer struct {
	openErr error
	chunks  [][]byte
	opened  int
}

func (m *mockCapturer) Name() string { return "mock" }

func (m *mockCapturer) Open(_ context.Context) (application.CaptureSession, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	m.opened++
	data := []byte{}
	if m.opened <= len(m.chunks) {
		data = m.chunks[m.opened-1]
	}
	return &mockSession{data: data}, nil
}

type mockSession struct {
	data    []byte
	aborted bool
}

func (m *mockSession) Finish() (*domain.AudioBlob, error) {
	return &domain.AudioBlob{Data: m.data, MIMEType: domain.MIMETypeWebM}, nil
}

func (m *mockSession) Abort() error {
	m.aborted = true
	return nil
}

type mockClient struct {
	mu      sync.Mutex
	calls   []clientCall
	err     error
	audio   string
	block   chan struct{}
	entered chan struct{}
}

type clientCall struct {
	mode  domain.Mode
	query domain.Query
}

func (m *mockClient) Submit(_ context.Context, mode domain.Mode, q domain.Query) (*domain.Reply, error) {
	m.mu.Lock()
	m.calls = append(m.calls, clientCall{mode: mode, query: q})
	m.mu.Unlock()

	if m.entered != nil {
		close(m.entered)
	}
	if m.block != nil {
		<-m.block
	}
	if m.err != nil {
		return nil, m.err
	}

	query := q.Text
	if q.Audio != nil {
		query = "transcribed audio"
	}
	return &domain.Reply{
		Query:       query,
		Response:    "answer to " + query,
		AudioBase64: m.audio,
	}, nil
}

func (m *mockClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockPlayer struct {
	mu     sync.Mutex
	err    error
	played []string
	data   []byte
	hold   chan struct{}
}

func (m *mockPlayer) Play(ctx context.Context, res *application.AudioResource) error {
	m.mu.Lock()
	m.played = append(m.played, res.EntryID)
	m.data = res.Data
	m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	if m.hold != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.hold:
		}
	}
	return nil
}

func (m *mockPlayer) playedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.played...)
}

func (m *mockPlayer) lastData() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data
}

type mockAlerter struct {
	mu     sync.Mutex
	titles []string
}

func (m *mockAlerter) Alert(_ context.Context, title, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.titles = append(m.titles, title)
	return nil
}

func (m *mockAlerter) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.titles)
}

var errBackend = errors.New("backend down")
