package main

import (
	"context"
	"errors"
	"testing"

	"vocaloop/internal/domain"
)

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.ErrorCode]string{
		domain.ErrorCodeStartup:   "Startup failed",
		domain.ErrorCodeCaptions:  "Live captions unavailable",
		domain.ErrorCodeClipboard: "Clipboard write failed",
		domain.ErrorCodePlayback:  "Playback failed",
	}
	for code, want := range cases {
		code := code
		want := want
		t.Run(string(code), func(t *testing.T) {
			t.Parallel()
			if got := errorMessage(code, "ignored"); got != want {
				t.Fatalf("unexpected message: %q", got)
			}
		})
	}

	got := errorMessage(domain.ErrorCodePermission, "microphone unavailable: busy. Please allow microphone access.")
	if got != "Error: microphone unavailable: busy. Please allow microphone access." {
		t.Fatalf("unexpected permission message: %q", got)
	}
	if got := errorMessage(domain.ErrorCodeTransport, ""); got != "Unknown error" {
		t.Fatalf("expected unknown fallback, got %q", got)
	}
}

func TestRequireReady(t *testing.T) {
	t.Parallel()

	app := &App{}
	if err := app.requireReady(); err == nil {
		t.Fatalf("expected uninitialized error")
	}

	bootErr := errors.New("boot")
	app.bootErr = bootErr
	if err := app.requireReady(); !errors.Is(err, bootErr) {
		t.Fatalf("expected boot error, got %v", err)
	}
}

func TestGetStatusWhenNotInitialized(t *testing.T) {
	t.Parallel()

	app := &App{}
	status := app.GetStatus()
	if status.State != domain.UIStateIdle || status.Active || !status.StartEnabled {
		t.Fatalf("unexpected status: %+v", status)
	}

	app.bootErr = errors.New("boot")
	status = app.GetStatus()
	if status.StartEnabled || status.StopEnabled || status.Message != "boot" {
		t.Fatalf("unexpected boot status: %+v", status)
	}
}

func TestBindingsFailBeforeStartup(t *testing.T) {
	t.Parallel()

	app := &App{}
	if _, err := app.Speak("hello", ""); err == nil {
		t.Fatalf("expected speak to fail before startup")
	}
	if _, err := app.ToggleHistory(); err == nil {
		t.Fatalf("expected history to fail before startup")
	}
	if app.GetTranscript() != nil {
		t.Fatalf("expected no transcript before startup")
	}
	app.PlaybackEnded()
}

func TestWailsPlayerRequiresFrontend(t *testing.T) {
	t.Parallel()

	player := &wailsPlayer{app: &App{}}
	if err := player.Play(context.Background(), ""); err == nil {
		t.Fatalf("expected empty url to be rejected")
	}
	if err := player.Play(context.Background(), "https://x/a.mp3"); err == nil {
		t.Fatalf("expected detached frontend error")
	}
}
