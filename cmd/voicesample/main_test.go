package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tutor-voice/internal/application"
	"tutor-voice/internal/infra/audio"
)

type countingPlayer struct {
	plays int
	bytes int
}

func (p *countingPlayer) Play(_ context.Context, res *application.AudioResource) error {
	p.plays++
	p.bytes = len(res.Data)
	return nil
}

func TestRun_RecordStopSave(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	clips := t.TempDir()
	wavData, err := audio.EncodeWAV(make([]int16, 16000), 16000, 1)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	if err := os.WriteFile(filepath.Join(clips, "a.wav"), wavData, 0644); err != nil {
		t.Fatalf("writing clip: %v", err)
	}

	outDir := t.TempDir()
	recorder := application.NewRecorder(audio.NewFileCapturer(clips), application.NoopMetrics{}, logger)
	player := &countingPlayer{}
	samples := application.NewSampleRecorder(recorder, outDir, audio.ProbeDuration, player, logger)

	var out strings.Builder
	in := strings.NewReader("save\nplay\nrecord\nstop\nplay\nsave\nquit\n")
	if err := run(context.Background(), samples, in, &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	if !strings.Contains(out.String(), "nothing recorded yet") {
		t.Errorf("save before recording should be refused:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "1.0s") {
		t.Errorf("expected duration in preview:\n%s", out.String())
	}

	if player.plays != 1 || player.bytes != len(wavData) {
		t.Errorf("preview playback: %d plays of %d bytes", player.plays, player.bytes)
	}

	files, err := filepath.Glob(filepath.Join(outDir, "voice-sample-*.wav"))
	if err != nil || len(files) != 1 {
		t.Fatalf("saved samples: %v, %v", files, err)
	}
}
