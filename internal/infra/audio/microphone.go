//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"

	"tutor-voice/internal/application"
	"tutor-voice/internal/domain"
)

const framesPerBuffer = 1024

// MicrophoneCapturer records 16-bit PCM from the default input device and
// hands it back as a WAV blob.
type MicrophoneCapturer struct {
	sampleRate int
	logger     *slog.Logger
}

func NewMicrophoneCapturer(sampleRate int, logger *slog.Logger) *MicrophoneCapturer {
	return &MicrophoneCapturer{
		sampleRate: sampleRate,
		logger:     logger,
	}
}

func (m *MicrophoneCapturer) Name() string {
	return "portaudio"
}

func (m *MicrophoneCapturer) Open(_ context.Context) (application.CaptureSession, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing portaudio: %w", err)
	}

	in := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.sampleRate), len(in), in)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("opening stream: %w", classifyPortAudio(err))
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("starting stream: %w", classifyPortAudio(err))
	}

	s := &micSession{
		stream:     stream,
		in:         in,
		sampleRate: m.sampleRate,
		logger:     m.logger,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	go s.loop()

	m.logger.Debug("microphone started", "sampleRate", m.sampleRate)
	return s, nil
}

// classifyPortAudio maps device access failures to a permission denial.
func classifyPortAudio(err error) error {
	var paErr portaudio.Error
	if errors.As(err, &paErr) {
		switch paErr {
		case portaudio.DeviceUnavailable, portaudio.InvalidDevice:
			return fmt.Errorf("%w: %v", domain.ErrPermissionDenied, err)
		}
	}
	return err
}

type micSession struct {
	stream     *portaudio.Stream
	in         []int16
	sampleRate int
	logger     *slog.Logger

	mu      sync.Mutex
	samples []int16
	readErr error

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func (s *micSession) loop() {
	defer close(s.done)

	for {
		select {
		case <-s.stop:
			return
		default:
		}

		if err := s.stream.Read(); err != nil {
			if errors.Is(err, portaudio.InputOverflowed) {
				s.logger.Debug("input overflowed")
				continue
			}
			s.mu.Lock()
			s.readErr = err
			s.mu.Unlock()
			return
		}

		s.mu.Lock()
		s.samples = append(s.samples, s.in...)
		s.mu.Unlock()
	}
}

func (s *micSession) halt() {
	s.stopOnce.Do(func() {
		close(s.stop)
		<-s.done
		s.stream.Stop()
		s.stream.Close()
		portaudio.Terminate()
	})
}

func (s *micSession) Finish() (*domain.AudioBlob, error) {
	s.halt()

	s.mu.Lock()
	samples, readErr := s.samples, s.readErr
	s.mu.Unlock()

	if readErr != nil && len(samples) == 0 {
		return nil, fmt.Errorf("reading from stream: %w", readErr)
	}

	data, err := EncodeWAV(samples, s.sampleRate, 1)
	if err != nil {
		return nil, err
	}
	return &domain.AudioBlob{Data: data, MIMEType: domain.MIMETypeWAV}, nil
}

func (s *micSession) Abort() error {
	s.halt()
	return nil
}
