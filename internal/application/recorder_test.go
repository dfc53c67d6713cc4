package application_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"tutor-voice/internal/application"
	"tutor-voice/internal/domain"
)

func TestRecorder_StartStopReset(t *testing.T) {
	capturer := &mockCapturer{chunks: [][]byte{[]byte("hello")}}
	rec := application.NewRecorder(capturer, application.NoopMetrics{}, discardLogger())
	ctx := context.Background()

	if err := rec.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !rec.State().IsRecording {
		t.Error("expected recording state")
	}

	if err := rec.Start(ctx); !errors.Is(err, domain.ErrAlreadyRecording) {
		t.Errorf("second Start: got %v, want ErrAlreadyRecording", err)
	}

	blob, err := rec.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if string(blob.Data) != "hello" {
		t.Errorf("blob: got %q", blob.Data)
	}
	if rec.State().IsRecording {
		t.Error("still recording after Stop")
	}

	if rec.ResetIf(&domain.AudioBlob{Data: []byte("hello")}) {
		t.Error("ResetIf must not drop a different blob")
	}
	if rec.State().Blob != blob {
		t.Error("blob should survive a mismatched ResetIf")
	}

	if !rec.ResetIf(blob) || rec.State().Blob != nil {
		t.Error("ResetIf should drop the submitted blob")
	}
}

func TestRecorder_StopWithoutStart(t *testing.T) {
	rec := application.NewRecorder(&mockCapturer{}, application.NoopMetrics{}, discardLogger())

	if _, err := rec.Stop(); !errors.Is(err, domain.ErrNotRecording) {
		t.Errorf("got %v, want ErrNotRecording", err)
	}
}

func TestRecorder_NewRecordingDiscardsUnsentBlob(t *testing.T) {
	capturer := &mockCapturer{chunks: [][]byte{[]byte("first"), []byte("second")}}
	rec := application.NewRecorder(capturer, application.NoopMetrics{}, discardLogger())
	ctx := context.Background()

	if err := rec.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := rec.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if err := rec.Start(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if rec.State().Blob != nil {
		t.Error("previous blob should be discarded when a new recording starts")
	}

	blob, err := rec.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if string(blob.Data) != "second" {
		t.Errorf("blob: got %q, want second", blob.Data)
	}
}

func TestRecorder_PermissionDeniedKeepsState(t *testing.T) {
	capturer := &mockCapturer{openErr: fmt.Errorf("mic: %w", domain.ErrPermissionDenied)}
	rec := application.NewRecorder(capturer, application.NoopMetrics{}, discardLogger())

	err := rec.Start(context.Background())
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("got %v, want ErrPermissionDenied", err)
	}
	if rec.State().IsRecording {
		t.Error("recording should not have started")
	}
}

func TestRecorder_DiscardAbortsCapture(t *testing.T) {
	capturer := &mockCapturer{chunks: [][]byte{[]byte("noise")}}
	rec := application.NewRecorder(capturer, application.NoopMetrics{}, discardLogger())

	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := rec.Discard(); err != nil {
		t.Fatalf("Discard: %v", err)
	}

	state := rec.State()
	if state.IsRecording || state.Blob != nil {
		t.Errorf("state after discard: %+v", state)
	}
}
