package output

import (
	"fmt"
	"io"
	"sync"

	"vocaloop/internal/domain"
)

// Formatter renders controller events as terminal lines. It implements
// ports.EventSink.
type Formatter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

func (f *Formatter) printf(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fmt.Fprintf(f.w, format, args...)
}

func (f *Formatter) StateChanged(state domain.UIState, reason domain.StateReason) {
	message := reason.Message()
	if message == "" {
		return
	}
	switch state {
	case domain.UIStateRecording:
		f.printf("🎙️  %s\n", message)
	case domain.UIStateProcessing:
		f.printf("⏳ %s\n", message)
	default:
		if reason == domain.ReasonReplyFailed {
			return
		}
		f.printf("ℹ️  %s\n", message)
	}
}

func (f *Formatter) SpeakStatus(busy bool, message string) {
	if busy {
		f.printf("⏳ Generating audio...\n")
		return
	}
	if message != "" {
		f.printf("🔊 %s\n", message)
	}
}

func (f *Formatter) Caption(text string) {
	f.printf("   … %s\n", text)
}

func (f *Formatter) TranscriptReady(text string) {
	f.printf("📝 Transcript: %q\n", text)
}

func (f *Formatter) ChatAppended(messages []domain.ChatMessage) {
	for _, message := range messages {
		f.printf("%s: %s\n", message.Sender, message.Text)
	}
}

func (f *Formatter) HistoryChanged(view domain.HistoryView) {
	if !view.Visible {
		return
	}
	if view.Error != "" {
		f.printf("❌ %s\n", view.Error)
		return
	}
	if len(view.Messages) == 0 {
		f.printf("ℹ️  No messages yet\n")
		return
	}
	f.printf("📜 Chat history:\n\n")
	for _, message := range view.Messages {
		f.printf("  %s: %s\n", message.Sender, message.Text)
	}
}

func (f *Formatter) SessionError(code domain.ErrorCode, detail string) {
	switch code {
	case domain.ErrorCodeCaptions:
		f.Warning(detail)
	default:
		f.Error("Error: " + detail)
	}
}

func (f *Formatter) SessionInfo(session domain.Session) {
	if session.Resumed {
		f.printf("🔁 Resumed session %s\n", session.ID)
	} else {
		f.printf("🆕 New session %s\n", session.ID)
	}
	f.printf("🔗 %s\n", session.Address)
}

func (f *Formatter) Error(msg string) {
	f.printf("❌ %s\n", msg)
}

func (f *Formatter) Info(msg string) {
	f.printf("ℹ️  %s\n", msg)
}

func (f *Formatter) Success(msg string) {
	f.printf("✅ %s\n", msg)
}

func (f *Formatter) Warning(msg string) {
	f.printf("⚠️  %s\n", msg)
}
