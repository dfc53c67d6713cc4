package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"tutor-voice/internal/domain"
)

// EncodeWAV wraps 16-bit PCM samples in a WAV container.
func EncodeWAV(samples []int16, sampleRate, channels int) ([]byte, error) {
	out := &memFile{}
	enc := wav.NewEncoder(out, sampleRate, 16, channels, 1)

	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		buf.Data[i] = int(s)
	}

	if err := enc.Write(buf); err != nil {
		enc.Close()
		return nil, fmt.Errorf("encoding wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finalizing wav: %w", err)
	}
	return out.buf, nil
}

var errUnsupportedContainer = errors.New("duration only known for wav")

// ProbeDuration reports the play time of a WAV blob.
func ProbeDuration(blob *domain.AudioBlob) (time.Duration, error) {
	if blob.Empty() || !strings.HasPrefix(blob.MIMEType, domain.MIMETypeWAV) {
		return 0, errUnsupportedContainer
	}

	dec := wav.NewDecoder(bytes.NewReader(blob.Data))
	if !dec.IsValidFile() {
		return 0, fmt.Errorf("invalid wav data")
	}
	d, err := dec.Duration()
	if err != nil {
		return 0, fmt.Errorf("reading wav duration: %w", err)
	}
	return d, nil
}

// memFile is the in-memory io.WriteSeeker the wav encoder needs to patch
// its header sizes on Close.
type memFile struct {
	buf []byte
	pos int
}

func (m *memFile) Write(p []byte) (int, error) {
	end := m.pos + len(p)
	if end > len(m.buf) {
		m.buf = append(m.buf, make([]byte, end-len(m.buf))...)
	}
	copy(m.buf[m.pos:], p)
	m.pos = end
	return len(p), nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(m.pos) + offset
	case io.SeekEnd:
		abs = int64(len(m.buf)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("negative position %d", abs)
	}
	m.pos = int(abs)
	return abs, nil
}
