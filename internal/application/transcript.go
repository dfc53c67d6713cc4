package application

import (
	"fmt"
	"sync"

	"tutor-voice/internal/domain"
)

// Transcript holds one append-only history per mode.
type Transcript struct {
	mu      sync.RWMutex
	entries map[domain.Mode][]domain.ConversationEntry
}

func NewTranscript() *Transcript {
	return &Transcript{
		entries: make(map[domain.Mode][]domain.ConversationEntry),
	}
}

func (t *Transcript) Append(mode domain.Mode, entry domain.ConversationEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[mode] = append(t.entries[mode], entry)
}

// Entries returns a copy of the mode's history, oldest first.
func (t *Transcript) Entries(mode domain.Mode) []domain.ConversationEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	src := t.entries[mode]
	out := make([]domain.ConversationEntry, len(src))
	copy(out, src)
	return out
}

func (t *Transcript) Len(mode domain.Mode) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries[mode])
}

// Get returns the entry at a zero-based index.
func (t *Transcript) Get(mode domain.Mode, index int) (domain.ConversationEntry, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	src := t.entries[mode]
	if index < 0 || index >= len(src) {
		return domain.ConversationEntry{}, fmt.Errorf("%w: %s #%d", domain.ErrEntryNotFound, mode, index+1)
	}
	return src[index], nil
}

func (t *Transcript) Last(mode domain.Mode) (domain.ConversationEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	src := t.entries[mode]
	if len(src) == 0 {
		return domain.ConversationEntry{}, false
	}
	return src[len(src)-1], true
}
