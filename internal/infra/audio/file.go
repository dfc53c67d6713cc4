package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"tutor-voice/internal/application"
	"tutor-voice/internal/domain"
)

// FileCapturer stands in for a microphone on headless machines: every
// capture yields the next clip from a directory, in name order.
type FileCapturer struct {
	dir       string
	processed map[string]bool
	mu        sync.Mutex
}

func NewFileCapturer(dir string) *FileCapturer {
	return &FileCapturer{
		dir:       dir,
		processed: make(map[string]bool),
	}
}

func (f *FileCapturer) Name() string {
	return "file"
}

func (f *FileCapturer) Open(_ context.Context) (application.CaptureSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("reading clip dir: %w", domain.ErrPermissionDenied)
		}
		return nil, fmt.Errorf("reading clip dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		mime, ok := mimeForExt(filepath.Ext(entry.Name()))
		if !ok {
			continue
		}

		path := filepath.Join(f.dir, entry.Name())
		if f.processed[path] {
			continue
		}

		f.processed[path] = true
		return &fileSession{path: path, mime: mime}, nil
	}

	return nil, fmt.Errorf("no unused clips in %s", f.dir)
}

type fileSession struct {
	path string
	mime string
}

func (s *fileSession) Finish() (*domain.AudioBlob, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading clip %s: %w", s.path, err)
	}
	return &domain.AudioBlob{Data: data, MIMEType: s.mime}, nil
}

func (s *fileSession) Abort() error {
	return nil
}

func mimeForExt(ext string) (string, bool) {
	switch ext {
	case ".webm":
		return domain.MIMETypeWebM, true
	case ".wav":
		return domain.MIMETypeWAV, true
	case ".mp3":
		return domain.MIMETypeMPEG, true
	default:
		return "", false
	}
}
