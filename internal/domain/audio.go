package domain

import "strings"

const (
	MIMETypeWebM = "audio/webm"
	MIMETypeWAV  = "audio/wav"
	MIMETypeMPEG = "audio/mpeg"
)

// AudioBlob is a finished recording ready to be submitted or saved.
type AudioBlob struct {
	Data     []byte
	MIMEType string
}

func (b *AudioBlob) Empty() bool {
	return b == nil || len(b.Data) == 0
}

// Extension returns the file extension matching the blob's MIME type,
// including the leading dot.
func (b *AudioBlob) Extension() string {
	mime := MIMETypeWebM
	if b != nil && b.MIMEType != "" {
		mime = b.MIMEType
	}
	switch {
	case strings.HasPrefix(mime, MIMETypeWAV):
		return ".wav"
	case strings.HasPrefix(mime, MIMETypeMPEG):
		return ".mp3"
	default:
		return ".webm"
	}
}

// Filename is the name used for the multipart file part.
func (b *AudioBlob) Filename() string {
	return "recording" + b.Extension()
}

type RecordingState struct {
	IsRecording bool
	Blob        *AudioBlob
}

// Query is what the user submits: exactly one of Text or Audio.
type Query struct {
	Text  string
	Audio *AudioBlob
}

func (q Query) Validate() error {
	hasText := strings.TrimSpace(q.Text) != ""
	hasAudio := !q.Audio.Empty()
	switch {
	case hasText && hasAudio:
		return ErrAmbiguousQuery
	case !hasText && !hasAudio:
		return ErrEmptyQuery
	}
	return nil
}

func (q Query) Kind() string {
	if !q.Audio.Empty() {
		return "audio"
	}
	return "text"
}
