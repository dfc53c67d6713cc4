package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"tutor-voice/config"
	"tutor-voice/internal/application"
	"tutor-voice/internal/bootstrap"
	"tutor-voice/internal/domain"
	"tutor-voice/internal/infra/audio"
	"tutor-voice/internal/infra/metrics"
	"tutor-voice/internal/infra/player"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dir := flag.String("dir", "", "directory for saved samples (overrides samples.dir)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	if *dir != "" {
		cfg.Samples.Dir = *dir
	}

	logger := bootstrap.SetupLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	recorder := application.NewRecorder(bootstrap.NewCapturer(cfg.Audio, logger), metrics.New(), logger)
	prober := audio.NewDurationProber(cfg.Audio.FFmpegPath)
	samples := application.NewSampleRecorder(
		recorder,
		cfg.Samples.Dir,
		prober.Probe,
		player.NewCommand(cfg.Playback.Command, logger),
		logger,
	)

	if err := run(ctx, samples, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("voice sample error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, samples *application.SampleRecorder, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Voice sample recorder: record, stop, play, save, discard, quit")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			samples.Discard()
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			samples.Discard()
			return err
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "":
		case "record", "r":
			err := samples.Start(ctx)
			switch {
			case err == nil:
				fmt.Fprintln(out, "recording... type stop when done")
			case errors.Is(err, domain.ErrPermissionDenied):
				fmt.Fprintln(out, "!! Microphone unavailable: check that a microphone is connected and access is allowed")
			default:
				fmt.Fprintf(out, "could not start recording: %v\n", err)
			}
		case "stop", "s":
			p, err := samples.Stop()
			if err != nil {
				fmt.Fprintf(out, "could not stop recording: %v\n", err)
				continue
			}
			fmt.Fprintln(out, describe(p))
		case "play", "p":
			err := samples.Play(ctx)
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrNoAudio):
				fmt.Fprintln(out, "nothing recorded yet")
			default:
				fmt.Fprintf(out, "could not play sample: %v\n", err)
			}
		case "save", "download", "d":
			path, err := samples.Download()
			if errors.Is(err, domain.ErrNoAudio) {
				fmt.Fprintln(out, "nothing recorded yet")
				continue
			}
			if err != nil {
				fmt.Fprintf(out, "could not save sample: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "saved %s\n", path)
		case "discard":
			if err := samples.Discard(); err != nil {
				fmt.Fprintf(out, "could not discard: %v\n", err)
				continue
			}
			fmt.Fprintln(out, "discarded")
		case "quit", "exit", "q":
			samples.Discard()
			return nil
		default:
			fmt.Fprintln(out, "commands: record, stop, play, save, discard, quit")
		}
	}
}

func describe(p *application.SamplePreview) string {
	if p.Duration > 0 {
		return fmt.Sprintf("recorded %d bytes (%s, %.1fs), type play to listen or save to keep it", p.Bytes, p.MIMEType, p.Duration.Seconds())
	}
	return fmt.Sprintf("recorded %d bytes (%s, duration unknown), type play to listen or save to keep it", p.Bytes, p.MIMEType)
}
