package application

import (
	"context"

	"tutor-voice/internal/domain"
)

type ConversationClient interface {
	Submit(ctx context.Context, mode domain.Mode, q domain.Query) (*domain.Reply, error)
}

// Alerter surfaces a blocking message to the user.
type Alerter interface {
	Alert(ctx context.Context, title, message string) error
}

type NoopAlerter struct{}

func (n *NoopAlerter) Alert(_ context.Context, _, _ string) error {
	return nil
}

// MultiAlerter fans an alert out to every alerter, returning the first error.
type MultiAlerter []Alerter

func (m MultiAlerter) Alert(ctx context.Context, title, message string) error {
	var first error
	for _, a := range m {
		if err := a.Alert(ctx, title, message); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type Metrics interface {
	SubmissionFinished(mode domain.Mode, kind string, err error)
	RecordingFinished(bytes int)
	PlaybackStarted(manual bool)
	PlaybackFallback()
}

type NoopMetrics struct{}

func (NoopMetrics) SubmissionFinished(domain.Mode, string, error) {}
func (NoopMetrics) RecordingFinished(int)                         {}
func (NoopMetrics) PlaybackStarted(bool)                          {}
func (NoopMetrics) PlaybackFallback()                             {}
