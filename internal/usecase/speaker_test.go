package usecase

import (
	"context"
	"errors"
	"testing"

	"vocaloop/internal/ports"
)

func TestSpeakerPlaysReturnedAudio(t *testing.T) {
	t.Parallel()

	api := &fakeVoiceAPI{audioURL: "https://x/y.mp3"}
	player := &fakePlayer{}
	events := &fakeEventSink{}
	speaker := NewSpeaker(api, player, events)

	got, err := speaker.Speak(context.Background(), "Hello", "en-US-natalie")
	if err != nil {
		t.Fatalf("speak failed: %v", err)
	}
	if got != "https://x/y.mp3" {
		t.Fatalf("unexpected url: %s", got)
	}
	if api.lastText != "Hello" || api.lastVoice != "en-US-natalie" {
		t.Fatalf("unexpected request: text=%q voice=%q", api.lastText, api.lastVoice)
	}
	if urls := player.snapshot(); len(urls) != 1 || urls[0] != "https://x/y.mp3" {
		t.Fatalf("unexpected playback: %v", urls)
	}

	speaks := events.snapshotSpeaks()
	if len(speaks) != 2 || !speaks[0].busy || speaks[1].busy {
		t.Fatalf("expected busy then ready, got %+v", speaks)
	}
	if speaks[1].message != "Audio ready and playing!" {
		t.Fatalf("unexpected message: %q", speaks[1].message)
	}
}

func TestSpeakerRejectsBlankText(t *testing.T) {
	t.Parallel()

	api := &fakeVoiceAPI{audioURL: "https://x/y.mp3"}
	events := &fakeEventSink{}
	speaker := NewSpeaker(api, &fakePlayer{}, events)

	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := speaker.Speak(context.Background(), text, ""); !errors.Is(err, ErrEmptyText) {
			t.Fatalf("expected ErrEmptyText for %q, got %v", text, err)
		}
	}
	if api.generates != 0 {
		t.Fatalf("expected no request for blank text")
	}
	speaks := events.snapshotSpeaks()
	if len(speaks) == 0 || speaks[0].message != "Please enter some text." {
		t.Fatalf("unexpected speak status: %+v", speaks)
	}
}

func TestSpeakerShowsServerDetail(t *testing.T) {
	t.Parallel()

	player := &fakePlayer{}
	events := &fakeEventSink{}
	api := &fakeVoiceAPI{generateErr: &ports.APIError{StatusCode: 500, Detail: "boom"}}
	speaker := NewSpeaker(api, player, events)

	if _, err := speaker.Speak(context.Background(), "Hello", ""); err == nil {
		t.Fatalf("expected error")
	}
	speaks := events.snapshotSpeaks()
	if last := speaks[len(speaks)-1]; last.busy || last.message != "Error: boom" {
		t.Fatalf("unexpected final status: %+v", last)
	}
	if len(player.snapshot()) != 0 {
		t.Fatalf("expected no playback")
	}
}

func TestSpeakerMissingAudioURL(t *testing.T) {
	t.Parallel()

	events := &fakeEventSink{}
	api := &fakeVoiceAPI{generateErr: &ports.MissingFieldError{Field: "audio_url", Message: "Audio URL not found in response."}}
	speaker := NewSpeaker(api, &fakePlayer{}, events)

	_, err := speaker.Speak(context.Background(), "Hello", "")
	if !errors.Is(err, ports.ErrMissingField) {
		t.Fatalf("expected missing field error, got %v", err)
	}
	speaks := events.snapshotSpeaks()
	if last := speaks[len(speaks)-1]; last.message != "Error: Audio URL not found in response." {
		t.Fatalf("unexpected final status: %+v", last)
	}
}
