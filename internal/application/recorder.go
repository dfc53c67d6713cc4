package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"tutor-voice/internal/domain"
)

// Recorder owns the recording state: at most one capture in progress and
// at most one finished, unsent blob.
type Recorder struct {
	capturer Capturer
	metrics  Metrics
	logger   *slog.Logger

	mu      sync.Mutex
	session CaptureSession
	blob    *domain.AudioBlob
}

func NewRecorder(capturer Capturer, metrics Metrics, logger *slog.Logger) *Recorder {
	return &Recorder{
		capturer: capturer,
		metrics:  metrics,
		logger:   logger,
	}
}

// Start opens the microphone. A previously recorded blob that was never
// sent is discarded once capture has started.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session != nil {
		return domain.ErrAlreadyRecording
	}

	session, err := r.capturer.Open(ctx)
	if err != nil {
		return fmt.Errorf("opening %s capture: %w", r.capturer.Name(), err)
	}

	if r.blob != nil {
		r.logger.Info("discarding unsent recording", "bytes", len(r.blob.Data))
		r.blob = nil
	}

	r.session = session
	r.logger.Info("recording started", "capturer", r.capturer.Name())
	return nil
}

func (r *Recorder) Stop() (*domain.AudioBlob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil {
		return nil, domain.ErrNotRecording
	}

	session := r.session
	r.session = nil

	blob, err := session.Finish()
	if err != nil {
		return nil, fmt.Errorf("finishing capture: %w", err)
	}

	r.blob = blob
	r.metrics.RecordingFinished(len(blob.Data))
	r.logger.Info("recording stopped", "bytes", len(blob.Data), "mime", blob.MIMEType)
	return blob, nil
}

// ResetIf drops the finished blob only if it is still the submitted one.
// A take recorded while the submission was in flight is kept.
func (r *Recorder) ResetIf(submitted *domain.AudioBlob) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if submitted == nil || r.blob != submitted {
		return false
	}
	r.blob = nil
	return true
}

// Discard aborts any capture in progress and drops the finished blob.
func (r *Recorder) Discard() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.blob = nil
	if r.session == nil {
		return nil
	}
	session := r.session
	r.session = nil
	if err := session.Abort(); err != nil {
		return fmt.Errorf("aborting capture: %w", err)
	}
	return nil
}

func (r *Recorder) State() domain.RecordingState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return domain.RecordingState{
		IsRecording: r.session != nil,
		Blob:        r.blob,
	}
}
