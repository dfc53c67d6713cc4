package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tutor-voice/internal/domain"
)

// Session is the single-user conversation state behind the view: the
// active mode, the in-flight submission and the collaborators it drives.
type Session struct {
	client     ConversationClient
	recorder   *Recorder
	transcript *Transcript
	playback   *PlaybackController
	alerter    Alerter
	metrics    Metrics
	logger     *slog.Logger

	now   func() time.Time
	newID func() string

	mu   sync.Mutex
	mode domain.Mode
	busy bool
}

func NewSession(
	client ConversationClient,
	recorder *Recorder,
	transcript *Transcript,
	playback *PlaybackController,
	alerter Alerter,
	metrics Metrics,
	logger *slog.Logger,
) *Session {
	return &Session{
		client:     client,
		recorder:   recorder,
		transcript: transcript,
		playback:   playback,
		alerter:    alerter,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
		newID:      uuid.NewString,
		mode:       domain.DefaultMode,
	}
}

func (s *Session) Mode() domain.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Session) SwitchMode(mode domain.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownMode, mode)
	}
	s.mu.Lock()
	prev := s.mode
	s.mode = mode
	s.mu.Unlock()

	if prev != mode {
		s.logger.Info("mode switched", "from", prev, "to", mode)
	}
	return nil
}

// Busy reports whether a submission is in flight; input is disabled while true.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

func (s *Session) Transcript(mode domain.Mode) []domain.ConversationEntry {
	return s.transcript.Entries(mode)
}

func (s *Session) Recording() domain.RecordingState {
	return s.recorder.State()
}

func (s *Session) Playback() *PlaybackController {
	return s.playback
}

func (s *Session) StartRecording(ctx context.Context) error {
	err := s.recorder.Start(ctx)
	if err == nil {
		return nil
	}

	if errors.Is(err, domain.ErrPermissionDenied) {
		s.alert(ctx, "Microphone unavailable", "Microphone access was denied. Allow access and try again.")
	}
	return err
}

func (s *Session) StopRecording() (*domain.AudioBlob, error) {
	return s.recorder.Stop()
}

func (s *Session) DiscardRecording() error {
	return s.recorder.Discard()
}

// SubmitText sends a typed query in the active mode, exactly as typed.
// Blank text is a no-op and returns a nil entry.
func (s *Session) SubmitText(ctx context.Context, text string) (*domain.ConversationEntry, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return s.submit(ctx, domain.Query{Text: text})
}

// SubmitRecording sends the finished recording in the active mode. Without
// a recording it is a no-op and returns a nil entry.
func (s *Session) SubmitRecording(ctx context.Context) (*domain.ConversationEntry, error) {
	state := s.recorder.State()
	if state.Blob.Empty() {
		return nil, nil
	}
	return s.submit(ctx, domain.Query{Audio: state.Blob})
}

func (s *Session) Replay(ctx context.Context, entryID string) error {
	return s.playback.Replay(ctx, entryID)
}

func (s *Session) submit(ctx context.Context, q domain.Query) (*domain.ConversationEntry, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, domain.ErrSubmissionPending
	}
	s.busy = true
	mode := s.mode
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	kind := q.Kind()
	s.logger.Info("submitting query", "mode", mode, "kind", kind)

	reply, err := s.client.Submit(ctx, mode, q)
	s.metrics.SubmissionFinished(mode, kind, err)
	if err != nil {
		s.alert(ctx, "Request failed", "Could not reach the tutor. Your input was kept, please try again.")
		return nil, fmt.Errorf("submitting %s query: %w", kind, err)
	}

	entry := domain.NewEntry(s.newID(), reply, s.now())
	if entry.Query == "" {
		entry.Query = q.Text
	}

	s.transcript.Append(mode, entry)
	if q.Audio != nil && !s.recorder.ResetIf(q.Audio) {
		s.logger.Debug("keeping recording made during submission", "entry", entry.ID)
	}

	s.logger.Info("response received",
		"mode", mode,
		"entry", entry.ID,
		"has_audio", entry.HasAudio(),
	)

	if err := s.playback.HandleEntry(ctx, entry); err != nil {
		s.logger.Warn("reply audio not playable", "entry", entry.ID, "error", err)
	}

	return &entry, nil
}

func (s *Session) alert(ctx context.Context, title, message string) {
	if err := s.alerter.Alert(ctx, title, message); err != nil {
		s.logger.Error("alerting user", "error", err)
	}
}
