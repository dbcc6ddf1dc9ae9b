package domain

// UIState models the recording lifecycle shown by the page controls.
type UIState string

const (
	UIStateIdle       UIState = "idle"
	UIStateRecording  UIState = "recording"
	UIStateProcessing UIState = "processing"
)

// Mode selects which upload contract a finished recording uses.
type Mode string

const (
	ModeEcho Mode = "echo"
	ModeChat Mode = "chat"
)

// ParseMode falls back to chat for unknown values.
func ParseMode(value string) Mode {
	if Mode(value) == ModeEcho {
		return ModeEcho
	}
	return ModeChat
}

// StateReason provides a structured reason for state transitions.
type StateReason string

const (
	ReasonReady              StateReason = "ready"
	ReasonRecordingStarted   StateReason = "recording_started"
	ReasonRecordingDiscarded StateReason = "recording_discarded"
	ReasonProcessing         StateReason = "processing"
	ReasonUploading          StateReason = "uploading"
	ReasonReplyPlaying       StateReason = "reply_playing"
	ReasonReplyFailed        StateReason = "reply_failed"
	ReasonMicUnavailable     StateReason = "mic_unavailable"
	ReasonSpeakAgain         StateReason = "speak_again"
)

// Message is the status line shown for a transition.
func (r StateReason) Message() string {
	switch r {
	case ReasonReady:
		return "Ready"
	case ReasonRecordingStarted:
		return "Recording..."
	case ReasonRecordingDiscarded:
		return "Recording discarded"
	case ReasonProcessing:
		return "Processing audio..."
	case ReasonUploading:
		return "Transcribing and generating audio..."
	case ReasonReplyPlaying:
		return "Processing successful!"
	case ReasonReplyFailed:
		return "Request failed"
	case ReasonMicUnavailable:
		return "Microphone unavailable"
	case ReasonSpeakAgain:
		return "Speak again when you're ready."
	default:
		return ""
	}
}

// ErrorCode classifies errors surfaced to the user.
type ErrorCode string

const (
	ErrorCodeStartup      ErrorCode = "startup"
	ErrorCodeValidation   ErrorCode = "validation"
	ErrorCodePermission   ErrorCode = "permission"
	ErrorCodeTransport    ErrorCode = "transport"
	ErrorCodeApplication  ErrorCode = "application"
	ErrorCodeMissingField ErrorCode = "missing_field"
	ErrorCodeCapture      ErrorCode = "capture"
	ErrorCodePlayback     ErrorCode = "playback"
	ErrorCodeCaptions     ErrorCode = "captions"
	ErrorCodeClipboard    ErrorCode = "clipboard"
)

// Sender labels a chat message.
type Sender string

const (
	SenderUser      Sender = "You"
	SenderAssistant Sender = "AI"
)

// SenderForRole maps a stored history role onto a display label.
func SenderForRole(role string) Sender {
	if role == "user" {
		return SenderUser
	}
	return SenderAssistant
}

// ChatMessage is one rendered entry of a transcript.
type ChatMessage struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

// HistoryEntry is a message as stored by the backend.
type HistoryEntry struct {
	Role  string   `json:"role"`
	Parts []string `json:"parts"`
}

// HistoryView is the rendered state of the history panel.
type HistoryView struct {
	Visible  bool          `json:"visible"`
	Messages []ChatMessage `json:"messages"`
	Error    string        `json:"error,omitempty"`
}

// Session identifies the conversation a tab is bound to.
type Session struct {
	ID      string `json:"id"`
	Address string `json:"address"`
	Resumed bool   `json:"resumed"`
}

// TurnResult is returned once a recording has been uploaded and answered.
type TurnResult struct {
	Mode          Mode   `json:"mode"`
	Transcription string `json:"transcription"`
	Reply         string `json:"reply,omitempty"`
	AudioURL      string `json:"audioUrl,omitempty"`
}

// CaptionEvent is incremental text from the live caption stream.
type CaptionEvent struct {
	Text    string `json:"text"`
	IsFinal bool   `json:"isFinal"`
}

// Status summarizes the controller state and which controls are enabled.
type Status struct {
	State        UIState `json:"state"`
	Active       bool    `json:"active"`
	StartEnabled bool    `json:"startEnabled"`
	StopEnabled  bool    `json:"stopEnabled"`
	Message      string  `json:"message,omitempty"`
}

// StatusFor derives control affordances from a state.
func StatusFor(state UIState) Status {
	return Status{
		State:        state,
		Active:       state != UIStateIdle,
		StartEnabled: state == UIStateIdle,
		StopEnabled:  state == UIStateRecording,
	}
}
