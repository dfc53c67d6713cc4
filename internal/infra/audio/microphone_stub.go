//go:build !portaudio
// +build !portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"

	"tutor-voice/internal/application"
)

// MicrophoneCapturer stub when portaudio is not available
type MicrophoneCapturer struct {
	logger *slog.Logger
}

func NewMicrophoneCapturer(sampleRate int, logger *slog.Logger) *MicrophoneCapturer {
	return &MicrophoneCapturer{logger: logger}
}

func (m *MicrophoneCapturer) Name() string {
	return "portaudio"
}

func (m *MicrophoneCapturer) Open(_ context.Context) (application.CaptureSession, error) {
	return nil, fmt.Errorf("portaudio capture not available: rebuild with -tags portaudio")
}
