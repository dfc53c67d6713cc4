package view

import (
	"fmt"
	"io"
	"strings"

	"tutor-voice/internal/application"
	"tutor-voice/internal/domain"
)

const helpText = `Commands:
  <text>            ask the tutor in the active mode
  /mode [name]      show or switch mode (syllabus, courses)
  /record           start recording from the microphone
  /stop             stop recording
  /send             send the finished recording
  /retry            resend the last question that failed
  /discard          drop the current recording
  /history          show the transcript of the active mode
  /replay <n>       play the audio of entry n again
  /copy             copy the last response to the clipboard
  /help             show this help
  /quit             exit`

func renderEntry(w io.Writer, n int, e domain.ConversationEntry, playback *application.PlaybackController) {
	fmt.Fprintf(w, "#%d  %s\n", n, e.Timestamp)
	fmt.Fprintf(w, "  you:   %s\n", e.Query)
	fmt.Fprintf(w, "  tutor: %s\n", indent(e.Response, "         "))

	if !e.HasAudio() {
		return
	}
	switch {
	case playback.NeedsManualReplay(e.ID):
		fmt.Fprintf(w, "  [audio] autoplay unavailable, use /replay %d\n", n)
	case playback.Playing() && playback.Current() == e.ID:
		fmt.Fprintln(w, "  [audio] playing")
	default:
		fmt.Fprintf(w, "  [audio] /replay %d\n", n)
	}
}

func renderTranscript(w io.Writer, mode domain.Mode, entries []domain.ConversationEntry, playback *application.PlaybackController) {
	if len(entries) == 0 {
		fmt.Fprintf(w, "[%s] no messages yet\n", mode)
		return
	}
	fmt.Fprintf(w, "[%s] %d message(s)\n", mode, len(entries))
	for i, e := range entries {
		renderEntry(w, i+1, e, playback)
	}
}

func prompt(mode domain.Mode, state domain.RecordingState, busy bool) string {
	var flags []string
	if state.IsRecording {
		flags = append(flags, "recording")
	} else if !state.Blob.Empty() {
		flags = append(flags, "recording ready")
	}
	if busy {
		flags = append(flags, "waiting")
	}
	if len(flags) == 0 {
		return fmt.Sprintf("%s> ", mode)
	}
	return fmt.Sprintf("%s (%s)> ", mode, strings.Join(flags, ", "))
}

func indent(s, pad string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\n", "\n"+pad)
}
