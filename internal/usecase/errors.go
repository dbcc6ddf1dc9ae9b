package usecase

import (
	"errors"

	"vocaloop/internal/domain"
	"vocaloop/internal/ports"
)

var (
	ErrBusy         = errors.New("another request is still in progress")
	ErrNotRecording = errors.New("no active recording")
	ErrEmptyText    = errors.New("empty text")
	ErrNoAudio      = errors.New("no audio was captured")
)

const (
	emptyTextMessage  = "Please enter some text."
	micHelpSuffix     = ". Please allow microphone access."
	noAudioMessage    = "No audio was captured. Please try again."
	historyErrorTitle = "Could not load chat history: "
)

// classify maps an error onto the taxonomy shown to the user.
func classify(err error) domain.ErrorCode {
	var apiErr *ports.APIError
	var transportErr *ports.TransportError
	switch {
	case errors.Is(err, ErrEmptyText):
		return domain.ErrorCodeValidation
	case errors.Is(err, ports.ErrMicrophoneUnavailable):
		return domain.ErrorCodePermission
	case errors.Is(err, ports.ErrMissingField):
		return domain.ErrorCodeMissingField
	case errors.As(err, &apiErr):
		return domain.ErrorCodeApplication
	case errors.As(err, &transportErr):
		return domain.ErrorCodeTransport
	case errors.Is(err, ErrNoAudio):
		return domain.ErrorCodeCapture
	default:
		return domain.ErrorCodeTransport
	}
}

// userMessage renders err the way the page shows it.
func userMessage(err error) string {
	switch classify(err) {
	case domain.ErrorCodeValidation:
		return emptyTextMessage
	case domain.ErrorCodePermission:
		return err.Error() + micHelpSuffix
	case domain.ErrorCodeCapture:
		return noAudioMessage
	default:
		return err.Error()
	}
}

// partialAudio returns the playable audio an application error still carried.
func partialAudio(err error) string {
	var apiErr *ports.APIError
	if errors.As(err, &apiErr) {
		return apiErr.AudioURL
	}
	return ""
}
