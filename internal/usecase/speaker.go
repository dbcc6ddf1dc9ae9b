package usecase

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"vocaloop/internal/ports"
)

const speakReadyMessage = "Audio ready and playing!"

// Speaker turns typed text into speech with a single request.
type Speaker struct {
	api    ports.VoiceAPI
	player ports.Player
	events ports.EventSink

	mu   sync.Mutex
	busy bool
}

func NewSpeaker(api ports.VoiceAPI, player ports.Player, events ports.EventSink) *Speaker {
	return &Speaker{api: api, player: player, events: events}
}

// Speak requests audio for text and starts playing it. Blank text is rejected
// with ErrEmptyText before any request is made.
func (s *Speaker) Speak(ctx context.Context, text string, voiceID string) (string, error) {
	if strings.TrimSpace(text) == "" {
		s.events.SpeakStatus(false, emptyTextMessage)
		return "", ErrEmptyText
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return "", ErrBusy
	}
	s.busy = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	s.events.SpeakStatus(true, "")

	audioURL, err := s.api.GenerateAudio(ctx, text, voiceID)
	if err != nil {
		log.Warn().Err(err).Str("code", string(classify(err))).Msg("speech generation failed")
		s.events.SpeakStatus(false, "Error: "+userMessage(err))
		return "", err
	}

	if err := s.player.Play(ctx, audioURL); err != nil {
		s.events.SpeakStatus(false, "Error: "+err.Error())
		return audioURL, err
	}
	s.events.SpeakStatus(false, speakReadyMessage)
	return audioURL, nil
}
