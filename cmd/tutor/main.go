package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atotto/clipboard"

	"tutor-voice/config"
	"tutor-voice/internal/application"
	"tutor-voice/internal/bootstrap"
	"tutor-voice/internal/infra/alert"
	"tutor-voice/internal/infra/conversation"
	"tutor-voice/internal/infra/metrics"
	"tutor-voice/internal/infra/player"
	"tutor-voice/internal/view"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := bootstrap.SetupLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	timeout, err := config.Duration(cfg.API.Timeout, 60*time.Second)
	if err != nil {
		logger.Warn("invalid api timeout, using default", "error", err)
	}

	out := view.Synchronized(os.Stdout)
	m := metrics.New()

	alerters := application.MultiAlerter{view.NewTerminalAlerter(out)}
	if cfg.Alert.Desktop {
		alerters = append(alerters, alert.NewDesktop("Tutor"))
	}

	capturer := bootstrap.NewCapturer(cfg.Audio, logger)
	playback := application.NewPlaybackController(player.NewCommand(cfg.Playback.Command, logger), m, logger)

	session := application.NewSession(
		conversation.NewClient(cfg.API.URL, timeout),
		application.NewRecorder(capturer, m, logger),
		application.NewTranscript(),
		playback,
		alerters,
		m,
		logger,
	)

	if cfg.Metrics.Addr != "" {
		srv := metrics.NewServer(cfg.Metrics.Addr, m, session.Busy, logger)
		if err := srv.Start(ctx); err != nil {
			logger.Error("starting metrics server", "error", err)
			os.Exit(1)
		}
		defer srv.Stop()
	}

	logger.Info("starting tutor",
		"api_url", cfg.API.URL,
		"capture", capturer.Name(),
	)

	repl := view.NewREPL(session, out, clipboard.WriteAll, logger)
	err = repl.Run(ctx, os.Stdin)

	playback.Stop()
	playback.Wait()

	if err != nil && err != context.Canceled {
		logger.Error("tutor error", "error", err)
		os.Exit(1)
	}
}
