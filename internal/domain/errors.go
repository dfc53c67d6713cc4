package domain

import "errors"

var (
	ErrPermissionDenied  = errors.New("microphone permission denied")
	ErrAlreadyRecording  = errors.New("already recording")
	ErrNotRecording      = errors.New("not recording")
	ErrEmptyQuery        = errors.New("query has neither text nor audio")
	ErrAmbiguousQuery    = errors.New("query has both text and audio")
	ErrSubmission        = errors.New("submission failed")
	ErrSubmissionPending = errors.New("a submission is already in progress")
	ErrNoAudio           = errors.New("entry has no audio")
	ErrUnknownMode       = errors.New("unknown mode")
	ErrEntryNotFound     = errors.New("entry not found")
)
