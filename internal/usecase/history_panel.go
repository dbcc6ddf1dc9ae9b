package usecase

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"vocaloop/internal/domain"
	"vocaloop/internal/ports"
)

// HistoryPanel is the show/hide panel listing the stored conversation.
type HistoryPanel struct {
	api       ports.VoiceAPI
	events    ports.EventSink
	sessionID string

	mu   sync.Mutex
	view domain.HistoryView
}

func NewHistoryPanel(api ports.VoiceAPI, events ports.EventSink, sessionID string) *HistoryPanel {
	return &HistoryPanel{api: api, events: events, sessionID: sessionID}
}

// Toggle flips the panel. Revealing it re-fetches the whole history and
// replaces the rendered entries; a failed fetch is rendered inside the panel.
func (p *HistoryPanel) Toggle(ctx context.Context) domain.HistoryView {
	p.mu.Lock()
	visible := !p.view.Visible
	p.view.Visible = visible
	p.mu.Unlock()

	if !visible {
		view := p.View()
		p.events.HistoryChanged(view)
		return view
	}

	entries, err := p.api.History(ctx, p.sessionID)

	p.mu.Lock()
	if err != nil {
		log.Warn().Err(err).Str("session", p.sessionID).Msg("history fetch failed")
		p.view.Messages = nil
		p.view.Error = historyErrorTitle + err.Error()
	} else {
		p.view.Messages = historyMessages(entries)
		p.view.Error = ""
	}
	p.mu.Unlock()

	view := p.View()
	p.events.HistoryChanged(view)
	return view
}

// View returns a copy of the panel state.
func (p *HistoryPanel) View() domain.HistoryView {
	p.mu.Lock()
	defer p.mu.Unlock()
	view := p.view
	view.Messages = append([]domain.ChatMessage(nil), p.view.Messages...)
	return view
}

func historyMessages(entries []domain.HistoryEntry) []domain.ChatMessage {
	return lo.Map(entries, func(entry domain.HistoryEntry, _ int) domain.ChatMessage {
		return domain.ChatMessage{
			Sender: domain.SenderForRole(entry.Role),
			Text:   lo.FirstOr(entry.Parts, ""),
		}
	})
}
