package application

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"tutor-voice/internal/domain"
)

// AudioResource is a decoded, playable reply bound to a transcript entry.
type AudioResource struct {
	EntryID  string
	Data     []byte
	MIMEType string
}

// DecodeAudio turns the API's base64 payload into a playable resource.
// Payloads with stripped padding are accepted.
func DecodeAudio(entryID, payload string) (*AudioResource, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, domain.ErrNoAudio
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		var rawErr error
		data, rawErr = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if rawErr != nil {
			return nil, fmt.Errorf("decoding base64 audio: %w", err)
		}
	}

	return &AudioResource{
		EntryID:  entryID,
		Data:     data,
		MIMEType: domain.MIMETypeMPEG,
	}, nil
}

// PlaybackController owns the single playback target. Starting a new
// playback cancels whatever was playing before.
type PlaybackController struct {
	player  Player
	metrics Metrics
	logger  *slog.Logger

	mu        sync.Mutex
	resources map[string]*AudioResource
	blocked   map[string]bool
	current   string
	playing   bool
	gen       uint64
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewPlaybackController(player Player, metrics Metrics, logger *slog.Logger) *PlaybackController {
	return &PlaybackController{
		player:    player,
		metrics:   metrics,
		logger:    logger,
		resources: make(map[string]*AudioResource),
		blocked:   make(map[string]bool),
	}
}

// HandleEntry registers the entry's audio for replay and tries to play it
// right away. A refused autoplay is not an error.
func (c *PlaybackController) HandleEntry(ctx context.Context, entry domain.ConversationEntry) error {
	if !entry.HasAudio() {
		return nil
	}

	res, err := DecodeAudio(entry.ID, entry.AudioData)
	if err != nil {
		return fmt.Errorf("entry %s: %w", entry.ID, err)
	}

	c.mu.Lock()
	c.resources[entry.ID] = res
	c.mu.Unlock()

	c.start(ctx, res, false)
	return nil
}

func (c *PlaybackController) Replay(ctx context.Context, entryID string) error {
	c.mu.Lock()
	res, ok := c.resources[entryID]
	c.mu.Unlock()

	if !ok {
		return fmt.Errorf("replaying %s: %w", entryID, domain.ErrNoAudio)
	}

	c.start(ctx, res, true)
	return nil
}

func (c *PlaybackController) start(ctx context.Context, res *AudioResource, manual bool) {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	playCtx, cancel := context.WithCancel(ctx)
	c.gen++
	gen := c.gen
	c.cancel = cancel
	c.current = res.EntryID
	c.playing = true
	c.mu.Unlock()

	c.metrics.PlaybackStarted(manual)
	c.logger.Debug("playback starting", "entry", res.EntryID, "bytes", len(res.Data), "manual", manual)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()

		err := c.player.Play(playCtx, res)

		c.mu.Lock()
		defer c.mu.Unlock()

		superseded := gen != c.gen
		if !superseded {
			c.playing = false
		}

		switch {
		case err == nil:
			delete(c.blocked, res.EntryID)
		case playCtx.Err() != nil:
			// Superseded or stopped.
		default:
			c.blocked[res.EntryID] = true
			c.metrics.PlaybackFallback()
			c.logger.Info("playback unavailable, replay manually", "entry", res.EntryID, "error", err)
		}
	}()
}

// Stop cancels the active playback, if any.
func (c *PlaybackController) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

// Wait blocks until every started playback has returned.
func (c *PlaybackController) Wait() {
	c.wg.Wait()
}

func (c *PlaybackController) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *PlaybackController) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

func (c *PlaybackController) HasAudio(entryID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.resources[entryID]
	return ok
}

// NeedsManualReplay reports whether the entry's last playback attempt was
// refused by the player.
func (c *PlaybackController) NeedsManualReplay(entryID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocked[entryID]
}
