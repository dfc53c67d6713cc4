package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"tutor-voice/internal/application"
	"tutor-voice/internal/domain"
)

// ErrNoPlayer means no audio player binary is available, so replies can
// only be saved or replayed later.
var ErrNoPlayer = errors.New("no audio player available")

// fileArg is replaced with the path of the decoded audio file.
const fileArg = "{file}"

// Command plays audio by handing a temporary file to an external player.
type Command struct {
	argv   []string
	logger *slog.Logger
}

// NewCommand uses the given command line, or the platform default when
// empty. The command must contain {file} or the file is appended.
func NewCommand(command string, logger *slog.Logger) *Command {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		argv = detectDefault()
	}
	if len(argv) > 0 && !containsFileArg(argv) {
		argv = append(argv, fileArg)
	}
	return &Command{argv: argv, logger: logger}
}

func detectDefault() []string {
	candidates := [][]string{
		{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
		{"mpg123", "-q"},
		{"mpv", "--no-video", "--really-quiet"},
	}
	if runtime.GOOS == "darwin" {
		candidates = append([][]string{{"afplay"}}, candidates...)
	}
	for _, c := range candidates {
		if _, err := exec.LookPath(c[0]); err == nil {
			return c
		}
	}
	return nil
}

func containsFileArg(argv []string) bool {
	for _, a := range argv {
		if strings.Contains(a, fileArg) {
			return true
		}
	}
	return false
}

func (c *Command) Play(ctx context.Context, res *application.AudioResource) error {
	if len(c.argv) == 0 {
		return ErrNoPlayer
	}

	f, err := os.CreateTemp("", "tutor-reply-*"+(&domain.AudioBlob{MIMEType: res.MIMEType}).Extension())
	if err != nil {
		return fmt.Errorf("creating temp audio: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(res.Data); err != nil {
		f.Close()
		return fmt.Errorf("writing temp audio: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing temp audio: %w", err)
	}

	args := make([]string, len(c.argv)-1)
	for i, a := range c.argv[1:] {
		args[i] = strings.ReplaceAll(a, fileArg, path)
	}

	cmd := exec.CommandContext(ctx, c.argv[0], args...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNoPlayer, c.argv[0])
		}
		return fmt.Errorf("running %s: %w", c.argv[0], err)
	}

	c.logger.Debug("playback finished", "entry", res.EntryID)
	return nil
}
