package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"tutor-voice/internal/application"
	"tutor-voice/internal/domain"
)

type FFmpegOptions struct {
	Binary     string
	Format     string // ffmpeg input device format, e.g. pulse, avfoundation, dshow
	Input      string
	SampleRate int
	// StartupGrace is how long Open waits for the device to fail before
	// treating the capture as running.
	StartupGrace time.Duration
}

// FFmpegCapturer records the microphone through an ffmpeg child process
// and produces Opus in a WebM container, the format the API expects.
type FFmpegCapturer struct {
	opts   FFmpegOptions
	logger *slog.Logger
}

func NewFFmpegCapturer(opts FFmpegOptions, logger *slog.Logger) *FFmpegCapturer {
	if opts.Binary == "" {
		opts.Binary = "ffmpeg"
	}
	if opts.SampleRate == 0 {
		opts.SampleRate = 48000
	}
	if opts.StartupGrace == 0 {
		opts.StartupGrace = 300 * time.Millisecond
	}
	return &FFmpegCapturer{opts: opts, logger: logger}
}

func (f *FFmpegCapturer) Name() string {
	return "ffmpeg"
}

func (f *FFmpegCapturer) args() []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-nostats",
		"-f", f.opts.Format,
		"-i", f.opts.Input,
		"-ac", "1",
		"-ar", strconv.Itoa(f.opts.SampleRate),
		"-c:a", "libopus",
		"-f", "webm",
		"pipe:1",
	}
}

func (f *FFmpegCapturer) Open(ctx context.Context) (application.CaptureSession, error) {
	cmd := exec.Command(f.opts.Binary, f.args()...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	s := &ffmpegSession{
		cmd:    cmd,
		stdin:  stdin,
		exited: make(chan struct{}),
		logger: f.logger,
	}
	cmd.Stderr = &s.stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", f.opts.Binary, err)
	}

	go s.collect(stdout)

	select {
	case <-s.exited:
		return nil, s.startupError()
	case <-ctx.Done():
		s.Abort()
		return nil, ctx.Err()
	case <-time.After(f.opts.StartupGrace):
	}

	f.logger.Debug("ffmpeg capture running", "format", f.opts.Format, "input", f.opts.Input)
	return s, nil
}

type ffmpegSession struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	logger *slog.Logger

	stderr  lockedBuffer
	mu      sync.Mutex
	data    bytes.Buffer
	waitErr error
	exited  chan struct{}
}

// collect drains stdout chunk by chunk, then reaps the process.
func (s *ffmpegSession) collect(stdout io.Reader) {
	chunk := make([]byte, 32*1024)
	for {
		n, err := stdout.Read(chunk)
		if n > 0 {
			s.mu.Lock()
			s.data.Write(chunk[:n])
			s.mu.Unlock()
		}
		if err != nil {
			break
		}
	}

	err := s.cmd.Wait()
	s.mu.Lock()
	s.waitErr = err
	s.mu.Unlock()
	close(s.exited)
}

func (s *ffmpegSession) startupError() error {
	msg := strings.TrimSpace(s.stderr.String())
	if isPermissionMessage(msg) {
		return fmt.Errorf("%w: %s", domain.ErrPermissionDenied, msg)
	}
	s.mu.Lock()
	waitErr := s.waitErr
	s.mu.Unlock()
	if msg == "" && waitErr != nil {
		return fmt.Errorf("capture exited: %w", waitErr)
	}
	return fmt.Errorf("capture exited: %s", msg)
}

func isPermissionMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range []string{"permission denied", "operation not permitted", "not authorized", "access denied"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Finish asks ffmpeg to quit so it can close the WebM container cleanly.
func (s *ffmpegSession) Finish() (*domain.AudioBlob, error) {
	if _, err := io.WriteString(s.stdin, "q"); err != nil {
		s.logger.Debug("writing quit to ffmpeg", "error", err)
	}
	s.stdin.Close()

	select {
	case <-s.exited:
	case <-time.After(5 * time.Second):
		s.logger.Warn("ffmpeg did not exit, killing")
		_ = s.cmd.Process.Kill()
		<-s.exited
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data.Len() == 0 {
		if s.waitErr != nil {
			return nil, fmt.Errorf("capture produced no audio: %w", s.waitErr)
		}
		return nil, errors.New("capture produced no audio")
	}

	return &domain.AudioBlob{
		Data:     bytes.Clone(s.data.Bytes()),
		MIMEType: domain.MIMETypeWebM,
	}, nil
}

func (s *ffmpegSession) Abort() error {
	s.stdin.Close()
	select {
	case <-s.exited:
		return nil
	default:
	}
	if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("killing ffmpeg: %w", err)
	}
	<-s.exited
	return nil
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
