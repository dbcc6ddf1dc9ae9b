package ports

import (
	"context"
	"io"

	"vocaloop/internal/domain"
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioSession is a live capture session producing encoded audio fragments.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture opens the microphone.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// RecordingContentType is the container every recording is uploaded as.
const RecordingContentType = "audio/webm"

// AudioUpload is a finalized recording ready to be posted as a multipart file.
type AudioUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// EchoReply is the success payload of the echo endpoint.
type EchoReply struct {
	Transcription string `json:"transcription"`
	AudioURL      string `json:"murf_audio_url"`
}

// ChatReply is the success payload of the conversational endpoint.
type ChatReply struct {
	Transcription string `json:"transcription"`
	Reply         string `json:"llm_response"`
	AudioURL      string `json:"murf_audio_url"`
}

// VoiceAPI is the backend consumed by the client.
type VoiceAPI interface {
	GenerateAudio(ctx context.Context, text string, voiceID string) (string, error)
	Echo(ctx context.Context, upload AudioUpload) (EchoReply, error)
	Chat(ctx context.Context, sessionID string, voiceID string, upload AudioUpload) (ChatReply, error)
	History(ctx context.Context, sessionID string) ([]domain.HistoryEntry, error)
}

// Player plays a remote audio reference. Play returns once playback has been
// started; the shell reports the end of playback back to the controller.
type Player interface {
	Play(ctx context.Context, url string) error
}

// CaptionConfig describes the live caption stream.
type CaptionConfig struct {
	SampleRate int
	Channels   int
}

// CaptionSession is an active caption provider stream.
type CaptionSession interface {
	SendAudio(chunk []byte) error
	CloseSend() error
	Events() <-chan domain.CaptionEvent
	Wait() error
	Close() error
}

// CaptionProvider starts live caption streams.
type CaptionProvider interface {
	StartStreaming(ctx context.Context, cfg CaptionConfig) (CaptionSession, error)
}

// Clipboard writes text into the system clipboard.
type Clipboard interface {
	SetText(ctx context.Context, text string) error
}

// EventSink emits controller state and results to the UI.
type EventSink interface {
	StateChanged(state domain.UIState, reason domain.StateReason)
	SpeakStatus(busy bool, message string)
	Caption(text string)
	TranscriptReady(text string)
	ChatAppended(messages []domain.ChatMessage)
	HistoryChanged(view domain.HistoryView)
	SessionError(code domain.ErrorCode, detail string)
}
