package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"tutor-voice/internal/domain"
)

// SampleLayout timestamps saved voice samples.
const SampleLayout = "2006-01-02T15-04-05"

// DurationProbe estimates a blob's play time. It may return an error for
// containers it does not understand.
type DurationProbe func(blob *domain.AudioBlob) (time.Duration, error)

type SamplePreview struct {
	Bytes    int
	MIMEType string
	Duration time.Duration // zero when unknown
}

// sampleEntryID names the pending take when it is handed to the Player.
const sampleEntryID = "voice-sample"

// SampleRecorder is the standalone record/preview/download flow for
// producing voice samples. It reuses the Recorder but never talks to the API.
type SampleRecorder struct {
	recorder *Recorder
	dir      string
	probe    DurationProbe
	player   Player
	logger   *slog.Logger
	now      func() time.Time
}

func NewSampleRecorder(recorder *Recorder, dir string, probe DurationProbe, player Player, logger *slog.Logger) *SampleRecorder {
	return &SampleRecorder{
		recorder: recorder,
		dir:      dir,
		probe:    probe,
		player:   player,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *SampleRecorder) Start(ctx context.Context) error {
	return s.recorder.Start(ctx)
}

func (s *SampleRecorder) Stop() (*SamplePreview, error) {
	blob, err := s.recorder.Stop()
	if err != nil {
		return nil, err
	}
	return s.preview(blob), nil
}

func (s *SampleRecorder) preview(blob *domain.AudioBlob) *SamplePreview {
	p := &SamplePreview{Bytes: len(blob.Data), MIMEType: blob.MIMEType}
	if s.probe == nil {
		return p
	}
	d, err := s.probe(blob)
	if err != nil {
		s.logger.Debug("duration unknown", "mime", blob.MIMEType, "error", err)
		return p
	}
	p.Duration = d
	return p
}

// Play plays the pending take back and blocks until it ends or ctx is done.
func (s *SampleRecorder) Play(ctx context.Context) error {
	blob := s.recorder.State().Blob
	if blob.Empty() {
		return domain.ErrNoAudio
	}
	if s.player == nil {
		return fmt.Errorf("no player configured")
	}

	res := &AudioResource{
		EntryID:  sampleEntryID,
		Data:     blob.Data,
		MIMEType: blob.MIMEType,
	}
	if err := s.player.Play(ctx, res); err != nil {
		return fmt.Errorf("playing sample: %w", err)
	}
	return nil
}

// Download writes the finished recording to the sample directory and
// returns its path. The recording stays available for another download.
func (s *SampleRecorder) Download() (string, error) {
	blob := s.recorder.State().Blob
	if blob.Empty() {
		return "", domain.ErrNoAudio
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("creating sample dir: %w", err)
	}

	name := fmt.Sprintf("voice-sample-%s%s", s.now().Format(SampleLayout), blob.Extension())
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, blob.Data, 0644); err != nil {
		return "", fmt.Errorf("writing sample: %w", err)
	}

	s.logger.Info("voice sample saved", "path", path, "bytes", len(blob.Data))
	return path, nil
}

func (s *SampleRecorder) Discard() error {
	return s.recorder.Discard()
}

func (s *SampleRecorder) State() domain.RecordingState {
	return s.recorder.State()
}
