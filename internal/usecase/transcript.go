package usecase

import (
	"sync"

	"vocaloop/internal/domain"
)

// Transcript is the append-only list of chat entries rendered for the
// current page lifetime.
type Transcript struct {
	mu       sync.Mutex
	messages []domain.ChatMessage
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append adds messages in order and returns a copy of what was appended.
func (t *Transcript) Append(messages ...domain.ChatMessage) []domain.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, messages...)
	return append([]domain.ChatMessage(nil), messages...)
}

func (t *Transcript) Messages() []domain.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.ChatMessage(nil), t.messages...)
}
