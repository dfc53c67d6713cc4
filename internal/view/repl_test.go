package view_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tutor-voice/internal/application"
	"tutor-voice/internal/domain"
	"tutor-voice/internal/infra/audio"
	"tutor-voice/internal/infra/conversation"
	"tutor-voice/internal/view"
)

type silentPlayer struct {
	mu     sync.Mutex
	played int
}

func (p *silentPlayer) Play(_ context.Context, _ *application.AudioResource) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.played++
	return nil
}

type fakeAPI struct {
	failing atomic.Bool
	hits    atomic.Int32
	server  *httptest.Server
}

func newFakeAPI(t *testing.T) *fakeAPI {
	api := &fakeAPI{}
	api.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.hits.Add(1)
		if api.failing.Load() {
			http.Error(w, "unavailable", http.StatusBadGateway)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}

		query := r.FormValue("text")
		if _, _, err := r.FormFile("audio"); err == nil {
			query = "spoken question"
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"query":    query,
			"response": r.FormValue("mode") + " answer: " + query,
			"audio":    base64.StdEncoding.EncodeToString([]byte("mp3")),
		})
	}))
	t.Cleanup(api.server.Close)
	return api
}

type harness struct {
	repl      *view.REPL
	session   *application.Session
	out       *bytes.Buffer
	player    *silentPlayer
	api       *fakeAPI
	clipboard []string
}

func newHarness(t *testing.T) *harness {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	clipDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(clipDir, "question.webm"), []byte("webm clip"), 0644); err != nil {
		t.Fatalf("writing clip: %v", err)
	}

	api := newFakeAPI(t)
	h := &harness{out: &bytes.Buffer{}, player: &silentPlayer{}, api: api}
	out := view.Synchronized(h.out)

	metrics := application.NoopMetrics{}
	recorder := application.NewRecorder(audio.NewFileCapturer(clipDir), metrics, logger)
	playback := application.NewPlaybackController(h.player, metrics, logger)

	h.session = application.NewSession(
		conversation.NewClient(api.server.URL, 5*time.Second),
		recorder,
		application.NewTranscript(),
		playback,
		view.NewTerminalAlerter(out),
		metrics,
		logger,
	)

	h.repl = view.NewREPL(h.session, out, func(s string) error {
		h.clipboard = append(h.clipboard, s)
		return nil
	}, logger)

	return h
}

func (h *harness) do(t *testing.T, lines ...string) {
	t.Helper()
	ctx := context.Background()
	for _, line := range lines {
		if h.repl.HandleLine(ctx, line) {
			t.Fatalf("unexpected quit on %q", line)
		}
		h.repl.Wait()
	}
	h.session.Playback().Wait()
}

func TestREPL_ModeSwitchKeepsTranscriptsApart(t *testing.T) {
	h := newHarness(t)

	h.do(t,
		"What is the syllabus for Class 10?",
		"/mode courses",
		"Teach me a memory technique",
		"/mode syllabus",
	)

	syllabus := h.session.Transcript(domain.ModeSyllabus)
	if len(syllabus) != 1 {
		t.Fatalf("syllabus transcript: got %d entries, want 1", len(syllabus))
	}
	if syllabus[0].Response != "syllabus answer: What is the syllabus for Class 10?" {
		t.Errorf("syllabus response: got %q", syllabus[0].Response)
	}

	courses := h.session.Transcript(domain.ModeCourses)
	if len(courses) != 1 || courses[0].Query != "Teach me a memory technique" {
		t.Errorf("courses transcript: %+v", courses)
	}

	if !strings.Contains(h.out.String(), "[syllabus] 1 message(s)") {
		t.Errorf("switching back should render the syllabus transcript, got:\n%s", h.out.String())
	}
	if h.player.played != 2 {
		t.Errorf("autoplay count: got %d, want 2", h.player.played)
	}
}

func TestREPL_RecordAndSend(t *testing.T) {
	h := newHarness(t)

	h.do(t, "/send")
	if h.api.hits.Load() != 0 {
		t.Fatal("/send without a recording must not hit the API")
	}

	h.do(t, "/record", "/stop", "/send")

	entries := h.session.Transcript(domain.ModeSyllabus)
	if len(entries) != 1 || entries[0].Query != "spoken question" {
		t.Fatalf("transcript: %+v", entries)
	}
	if !h.session.Recording().Blob.Empty() {
		t.Error("recording should be cleared after sending")
	}
}

func TestREPL_FailedSubmissionAlertsAndKeepsTranscript(t *testing.T) {
	h := newHarness(t)

	h.do(t, "first question")
	h.api.failing.Store(true)
	h.do(t, "second question")

	if got := len(h.session.Transcript(domain.ModeSyllabus)); got != 1 {
		t.Errorf("transcript length: got %d, want 1", got)
	}
	if !strings.Contains(h.out.String(), "!! Request failed") {
		t.Errorf("expected an alert, got:\n%s", h.out.String())
	}
	if h.session.Busy() {
		t.Error("input should be enabled again")
	}
	if !strings.Contains(h.out.String(), "/retry") {
		t.Errorf("expected a retry hint, got:\n%s", h.out.String())
	}

	h.api.failing.Store(false)
	h.do(t, "/retry")

	entries := h.session.Transcript(domain.ModeSyllabus)
	if len(entries) != 2 || entries[1].Query != "second question" {
		t.Fatalf("transcript after retry: %+v", entries)
	}
	if got := h.api.hits.Load(); got != 3 {
		t.Errorf("requests: got %d, want 3", got)
	}

	h.do(t, "/retry")
	if !strings.Contains(h.out.String(), "nothing to retry") {
		t.Errorf("retry after success should have nothing to send, got:\n%s", h.out.String())
	}
	if got := h.api.hits.Load(); got != 3 {
		t.Errorf("requests after empty retry: got %d, want 3", got)
	}
}

func TestREPL_ReplayAndCopy(t *testing.T) {
	h := newHarness(t)

	h.do(t, "explain photosynthesis", "/replay 1", "/replay 7", "/copy")

	if h.player.played != 2 {
		t.Errorf("plays: got %d, want 2", h.player.played)
	}
	if !strings.Contains(h.out.String(), "no message #7") {
		t.Errorf("expected out-of-range message, got:\n%s", h.out.String())
	}
	if len(h.clipboard) != 1 || h.clipboard[0] != "syllabus answer: explain photosynthesis" {
		t.Errorf("clipboard: %v", h.clipboard)
	}
}

func TestREPL_RunUntilQuit(t *testing.T) {
	h := newHarness(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := strings.NewReader("/mode courses\n/help\n/quit\nignored after quit\n")
	if err := h.repl.Run(ctx, in); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if h.session.Mode() != domain.ModeCourses {
		t.Errorf("mode: got %s, want courses", h.session.Mode())
	}
	if !strings.Contains(h.out.String(), "/record") {
		t.Error("help text not printed")
	}
	if h.api.hits.Load() != 0 {
		t.Error("line after /quit must not be processed")
	}
}

func TestREPL_UnknownModeAndCommand(t *testing.T) {
	h := newHarness(t)

	h.do(t, "/mode history", "/frobnicate")

	out := h.out.String()
	if !strings.Contains(out, "unknown mode") {
		t.Errorf("expected unknown mode message, got:\n%s", out)
	}
	if !strings.Contains(out, "unknown command /frobnicate") {
		t.Errorf("expected unknown command message, got:\n%s", out)
	}
	if h.session.Mode() != domain.ModeSyllabus {
		t.Errorf("mode changed to %s", h.session.Mode())
	}
}
