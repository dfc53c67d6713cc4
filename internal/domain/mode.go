package domain

import (
	"fmt"
	"strings"
)

type Mode string

const (
	ModeSyllabus Mode = "syllabus"
	ModeCourses  Mode = "courses"
)

// DefaultMode is the mode a new session starts in.
const DefaultMode = ModeSyllabus

func Modes() []Mode {
	return []Mode{ModeSyllabus, ModeCourses}
}

func (m Mode) Valid() bool {
	return m == ModeSyllabus || m == ModeCourses
}

func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
	return m, nil
}
