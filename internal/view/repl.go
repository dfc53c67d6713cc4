package view

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"tutor-voice/internal/application"
	"tutor-voice/internal/domain"
)

// REPL is the terminal front end: it reads commands and questions, hands
// them to the session and renders the results.
type REPL struct {
	session   *application.Session
	out       io.Writer
	clipboard func(string) error
	logger    *slog.Logger

	inflight sync.WaitGroup

	mu         sync.Mutex
	failedText string // last typed question the tutor never answered
}

func NewREPL(session *application.Session, out io.Writer, clipboard func(string) error, logger *slog.Logger) *REPL {
	return &REPL{
		session:   session,
		out:       Synchronized(out),
		clipboard: clipboard,
		logger:    logger,
	}
}

// Run reads lines from in until /quit, EOF or ctx is done.
func (r *REPL) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
		close(lines)
	}()

	fmt.Fprintln(r.out, "Tutor ready. Type a question or /help.")
	r.showPrompt()

	defer r.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return fmt.Errorf("reading input: %w", err)
				}
				return nil
			}
			if r.HandleLine(ctx, line) {
				return nil
			}
			r.showPrompt()
		}
	}
}

// Wait blocks until the in-flight submission, if any, has finished.
func (r *REPL) Wait() {
	r.inflight.Wait()
}

func (r *REPL) showPrompt() {
	fmt.Fprint(r.out, prompt(r.session.Mode(), r.session.Recording(), r.session.Busy()))
}

// HandleLine executes one line of input and reports whether the user
// asked to quit.
func (r *REPL) HandleLine(ctx context.Context, line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}

	if !strings.HasPrefix(trimmed, "/") {
		r.submitText(ctx, line)
		return false
	}

	cmd, arg, _ := strings.Cut(trimmed[1:], " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "quit", "exit", "q":
		return true
	case "help", "h", "?":
		fmt.Fprintln(r.out, helpText)
	case "mode", "m":
		r.mode(arg)
	case "record", "rec":
		r.record(ctx)
	case "stop":
		r.stop()
	case "send":
		r.submit(ctx, "recording", func() (*domain.ConversationEntry, error) {
			return r.session.SubmitRecording(ctx)
		}, nil)
	case "retry":
		r.retry(ctx)
	case "discard":
		if err := r.session.DiscardRecording(); err != nil {
			fmt.Fprintf(r.out, "could not discard recording: %v\n", err)
			return false
		}
		fmt.Fprintln(r.out, "recording discarded")
	case "history", "ls":
		mode := r.session.Mode()
		renderTranscript(r.out, mode, r.session.Transcript(mode), r.session.Playback())
	case "replay", "play":
		r.replay(ctx, arg)
	case "copy":
		r.copyLast()
	default:
		fmt.Fprintf(r.out, "unknown command /%s, try /help\n", cmd)
	}
	return false
}

func (r *REPL) mode(arg string) {
	if arg == "" {
		fmt.Fprintf(r.out, "mode: %s (available: %s, %s)\n", r.session.Mode(), domain.ModeSyllabus, domain.ModeCourses)
		return
	}

	mode, err := domain.ParseMode(arg)
	if err != nil {
		fmt.Fprintf(r.out, "%v\n", err)
		return
	}
	if err := r.session.SwitchMode(mode); err != nil {
		fmt.Fprintf(r.out, "%v\n", err)
		return
	}
	renderTranscript(r.out, mode, r.session.Transcript(mode), r.session.Playback())
}

func (r *REPL) record(ctx context.Context) {
	err := r.session.StartRecording(ctx)
	switch {
	case err == nil:
		fmt.Fprintln(r.out, "recording... /stop when done")
	case errors.Is(err, domain.ErrPermissionDenied):
		// The session already alerted the user.
	default:
		fmt.Fprintf(r.out, "could not start recording: %v\n", err)
	}
}

func (r *REPL) stop() {
	blob, err := r.session.StopRecording()
	if err != nil {
		fmt.Fprintf(r.out, "could not stop recording: %v\n", err)
		return
	}
	fmt.Fprintf(r.out, "recorded %d bytes, /send to ask or /discard\n", len(blob.Data))
}

func (r *REPL) submitText(ctx context.Context, text string) {
	r.submit(ctx, "text", func() (*domain.ConversationEntry, error) {
		return r.session.SubmitText(ctx, text)
	}, func(err error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if err != nil {
			r.failedText = text
			return
		}
		r.failedText = ""
	})
}

// retry resends the last typed question that failed.
func (r *REPL) retry(ctx context.Context) {
	r.mu.Lock()
	text := r.failedText
	r.mu.Unlock()

	if text == "" {
		if !r.session.Recording().Blob.Empty() {
			fmt.Fprintln(r.out, "nothing to retry, your recording is kept: use /send")
			return
		}
		fmt.Fprintln(r.out, "nothing to retry")
		return
	}
	r.submitText(ctx, text)
}

// submit runs the request in the background so the prompt stays live; the
// session rejects anything typed before it completes. done, if set, sees
// the outcome of a request that was actually attempted.
func (r *REPL) submit(ctx context.Context, what string, fn func() (*domain.ConversationEntry, error), done func(error)) {
	if r.session.Busy() {
		fmt.Fprintln(r.out, "still waiting for the tutor, please hold on")
		return
	}

	mode := r.session.Mode()
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()

		entry, err := fn()
		attempted := entry != nil || (err != nil && !errors.Is(err, domain.ErrSubmissionPending))
		if done != nil && attempted {
			done(err)
		}
		switch {
		case errors.Is(err, domain.ErrSubmissionPending):
			fmt.Fprintln(r.out, "still waiting for the tutor, please hold on")
		case err != nil:
			r.logger.Warn("submission failed", "kind", what, "error", err)
			if what == "text" {
				fmt.Fprintln(r.out, "your question was kept, type /retry to send it again")
			} else {
				fmt.Fprintln(r.out, "your recording was kept, type /send to try again")
			}
		case entry == nil:
			if what == "recording" {
				fmt.Fprintln(r.out, "nothing recorded yet, use /record first")
			}
		default:
			fmt.Fprintln(r.out)
			renderEntry(r.out, len(r.session.Transcript(mode)), *entry, r.session.Playback())
		}
	}()
}

func (r *REPL) replay(ctx context.Context, arg string) {
	mode := r.session.Mode()
	entries := r.session.Transcript(mode)

	n := len(entries)
	if arg != "" {
		var err error
		n, err = strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintf(r.out, "usage: /replay <n>\n")
			return
		}
	}
	if n < 1 || n > len(entries) {
		fmt.Fprintf(r.out, "no message #%d in %s\n", n, mode)
		return
	}

	if err := r.session.Replay(ctx, entries[n-1].ID); err != nil {
		fmt.Fprintf(r.out, "message #%d has no audio\n", n)
		return
	}
	fmt.Fprintf(r.out, "playing #%d\n", n)
}

func (r *REPL) copyLast() {
	mode := r.session.Mode()
	entries := r.session.Transcript(mode)
	if len(entries) == 0 {
		fmt.Fprintln(r.out, "nothing to copy")
		return
	}
	if err := r.clipboard(entries[len(entries)-1].Response); err != nil {
		fmt.Fprintf(r.out, "could not copy: %v\n", err)
		return
	}
	fmt.Fprintln(r.out, "copied last response")
}
