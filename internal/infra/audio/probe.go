package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"tutor-voice/internal/domain"
)

const probeTimeout = 10 * time.Second

// ffmpeg reports progress as time=HH:MM:SS.xx; the last report is the total.
var progressTime = regexp.MustCompile(`time=(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)

// DurationProber reads WAV durations from the header and decodes anything
// else (such as the WebM that ffmpeg capture produces) with ffmpeg.
type DurationProber struct {
	binary string
}

func NewDurationProber(ffmpegPath string) *DurationProber {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &DurationProber{binary: ffmpegPath}
}

func (p *DurationProber) Probe(blob *domain.AudioBlob) (time.Duration, error) {
	if blob.Empty() {
		return 0, errUnsupportedContainer
	}
	if strings.HasPrefix(blob.MIMEType, domain.MIMETypeWAV) {
		return ProbeDuration(blob)
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.binary, "-hide_banner", "-i", "pipe:0", "-f", "null", "-")
	cmd.Stdin = bytes.NewReader(blob.Data)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("decoding with %s: %w", p.binary, err)
	}
	return parseProgressTime(stderr.String())
}

func parseProgressTime(out string) (time.Duration, error) {
	matches := progressTime.FindAllStringSubmatch(out, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("no duration in ffmpeg output")
	}
	last := matches[len(matches)-1]

	hours, _ := strconv.Atoi(last[1])
	minutes, _ := strconv.Atoi(last[2])
	seconds, err := strconv.ParseFloat(last[3], 64)
	if err != nil {
		return 0, fmt.Errorf("parsing duration %q: %w", last[0], err)
	}

	d := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds*float64(time.Second))
	return d.Round(10 * time.Millisecond), nil
}
