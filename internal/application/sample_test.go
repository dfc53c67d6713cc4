package application_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tutor-voice/internal/application"
	"tutor-voice/internal/domain"
)

func TestSampleRecorder_RecordStopDownload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "samples")
	capturer := &mockCapturer{chunks: [][]byte{[]byte("my voice")}}
	rec := application.NewRecorder(capturer, application.NoopMetrics{}, discardLogger())

	probe := func(_ *domain.AudioBlob) (time.Duration, error) { return 2 * time.Second, nil }
	samples := application.NewSampleRecorder(rec, dir, probe, &mockPlayer{}, discardLogger())

	if _, err := samples.Download(); !errors.Is(err, domain.ErrNoAudio) {
		t.Errorf("Download before recording: got %v, want ErrNoAudio", err)
	}

	if err := samples.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	preview, err := samples.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if preview.Bytes != len("my voice") || preview.Duration != 2*time.Second {
		t.Errorf("preview: %+v", preview)
	}

	path, err := samples.Download()
	if err != nil {
		t.Fatalf("Download: %v", err)
	}

	base := filepath.Base(path)
	if !strings.HasPrefix(base, "voice-sample-") || !strings.HasSuffix(base, ".webm") {
		t.Errorf("unexpected file name %s", base)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading sample: %v", err)
	}
	if string(data) != "my voice" {
		t.Errorf("sample content: got %q", data)
	}
}

func TestSampleRecorder_ProbeFailureLeavesDurationUnknown(t *testing.T) {
	capturer := &mockCapturer{chunks: [][]byte{[]byte("x")}}
	rec := application.NewRecorder(capturer, application.NoopMetrics{}, discardLogger())
	probe := func(_ *domain.AudioBlob) (time.Duration, error) { return 0, errors.New("unsupported") }
	samples := application.NewSampleRecorder(rec, t.TempDir(), probe, &mockPlayer{}, discardLogger())

	if err := samples.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	preview, err := samples.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if preview.Duration != 0 {
		t.Errorf("duration: got %v, want 0", preview.Duration)
	}
}

func TestSampleRecorder_PlayPreviewsPendingTake(t *testing.T) {
	capturer := &mockCapturer{chunks: [][]byte{[]byte("take one")}}
	rec := application.NewRecorder(capturer, application.NoopMetrics{}, discardLogger())
	player := &mockPlayer{}
	samples := application.NewSampleRecorder(rec, t.TempDir(), nil, player, discardLogger())
	ctx := context.Background()

	if err := samples.Play(ctx); !errors.Is(err, domain.ErrNoAudio) {
		t.Errorf("Play before recording: got %v, want ErrNoAudio", err)
	}

	if err := samples.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := samples.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if err := samples.Play(ctx); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if got := player.playedIDs(); len(got) != 1 {
		t.Fatalf("played: got %v, want one playback", got)
	}
	if got := string(player.lastData()); got != "take one" {
		t.Errorf("played data: got %q", got)
	}

	player.err = errBackend
	if err := samples.Play(ctx); !errors.Is(err, errBackend) {
		t.Errorf("Play with failing player: got %v", err)
	}
	if samples.State().Blob.Empty() {
		t.Error("take should stay available after a failed preview")
	}
}
