package application

import (
	"context"

	"tutor-voice/internal/domain"
)

// Capturer is the platform microphone primitive. Open must return an error
// wrapping domain.ErrPermissionDenied when the platform refuses access.
type Capturer interface {
	Open(ctx context.Context) (CaptureSession, error)
	Name() string
}

// CaptureSession buffers audio chunks until Finish assembles them into a
// single blob with the capturer's fixed MIME type.
type CaptureSession interface {
	Finish() (*domain.AudioBlob, error)
	Abort() error
}

// Player renders a decoded audio resource. Play blocks until playback ends
// or ctx is cancelled. An error means the platform refused to play, which
// callers treat as "manual replay only".
type Player interface {
	Play(ctx context.Context, res *AudioResource) error
}

type AudioFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

func DefaultAudioFormat() AudioFormat {
	return AudioFormat{
		SampleRate: 16000,
		Channels:   1,
		BitDepth:   16,
	}
}
