// Package bootstrap holds the wiring shared by the tutor and voicesample
// binaries.
package bootstrap

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"tutor-voice/config"
	"tutor-voice/internal/application"
	"tutor-voice/internal/infra/audio"
)

// SetupLogger builds the process logger. Logs go to stderr, or to a
// rotated file when one is configured, so stdout stays free for the
// conversation.
func SetupLogger(cfg config.LogConfig) *slog.Logger {
	return slog.New(newHandler(cfg, logOutput(cfg)))
}

func logOutput(cfg config.LogConfig) io.Writer {
	if cfg.File == "" {
		return os.Stderr
	}
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
}

func newHandler(cfg config.LogConfig, w io.Writer) slog.Handler {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// NewCapturer picks the capture backend named in the config.
func NewCapturer(cfg config.AudioConfig, logger *slog.Logger) application.Capturer {
	switch cfg.Capture {
	case "file":
		return audio.NewFileCapturer(cfg.ClipDir)
	case "portaudio", "microphone":
		return audio.NewMicrophoneCapturer(cfg.SampleRate, logger)
	case "ffmpeg":
		return newFFmpeg(cfg, logger)
	default:
		logger.Warn("unknown capture backend, using ffmpeg", "capture", cfg.Capture)
		return newFFmpeg(cfg, logger)
	}
}

func newFFmpeg(cfg config.AudioConfig, logger *slog.Logger) *audio.FFmpegCapturer {
	grace, err := config.Duration(cfg.StartupGrace, 0)
	if err != nil {
		logger.Warn("invalid startup grace, using default", "error", err, "value", cfg.StartupGrace)
	}
	return audio.NewFFmpegCapturer(audio.FFmpegOptions{
		Binary:       cfg.FFmpegPath,
		Format:       cfg.InputFormat,
		Input:        cfg.InputDevice,
		SampleRate:   cfg.SampleRate,
		StartupGrace: grace,
	}, logger)
}
