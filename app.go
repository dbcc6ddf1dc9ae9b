package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"vocaloop/internal/bootstrap"
	"vocaloop/internal/config"
	"vocaloop/internal/domain"
	"vocaloop/internal/usecase"
)

const (
	eventSession    = "vocaloop:session"
	eventError      = "vocaloop:error"
	eventSpeak      = "vocaloop:speak"
	eventCaption    = "vocaloop:caption"
	eventTranscript = "vocaloop:transcript"
	eventChat       = "vocaloop:chat"
	eventHistory    = "vocaloop:history"
	eventPlay       = "vocaloop:play"
)

// App is the Wails application root.
type App struct {
	ctx context.Context

	cfg      config.Config
	services bootstrap.Services
	bootErr  error
}

func NewApp(cfg config.Config, bootErr error) *App {
	return &App{cfg: cfg, bootErr: bootErr}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	if a.bootErr != nil {
		a.SessionError(domain.ErrorCodeStartup, a.bootErr.Error())
		return
	}

	services, err := bootstrap.Assemble(a.cfg, a, &wailsPlayer{app: a})
	if err != nil {
		a.bootErr = err
		a.SessionError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.services = services
	a.StateChanged(domain.UIStateIdle, domain.ReasonReady)
}

// Speak converts typed text to speech and plays it.
func (a *App) Speak(text string, voiceID string) (string, error) {
	if err := a.requireReady(); err != nil {
		return "", err
	}
	if voiceID == "" {
		voiceID = a.cfg.Session.VoiceID
	}
	return a.services.Speaker.Speak(a.ctx, text, voiceID)
}

// StartRecording opens the microphone.
func (a *App) StartRecording() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.services.Controller.Start(a.ctx); err != nil {
		return a.services.Controller.Status(), err
	}
	return a.services.Controller.Status(), nil
}

// StopRecording uploads the recording and returns the rendered turn. Stopping
// twice is a no-op.
func (a *App) StopRecording() (domain.TurnResult, error) {
	if err := a.requireReady(); err != nil {
		return domain.TurnResult{}, err
	}
	result, err := a.services.Controller.Stop(a.ctx)
	if errors.Is(err, usecase.ErrNotRecording) {
		return domain.TurnResult{}, nil
	}
	return result, err
}

// AbortRecording discards an in-progress recording.
func (a *App) AbortRecording() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.services.Controller.Abort(); err != nil && !errors.Is(err, usecase.ErrNotRecording) {
		return err
	}
	return nil
}

// PlaybackEnded is called by the page when the reply audio finished.
func (a *App) PlaybackEnded() {
	if a.requireReady() != nil {
		return
	}
	a.services.Controller.PlaybackEnded()
}

// ToggleHistory shows or hides the chat history panel.
func (a *App) ToggleHistory() (domain.HistoryView, error) {
	if err := a.requireReady(); err != nil {
		return domain.HistoryView{}, err
	}
	return a.services.History.Toggle(a.ctx), nil
}

// GetStatus returns the current recording status.
func (a *App) GetStatus() domain.Status {
	if a.services.Controller == nil {
		status := domain.StatusFor(domain.UIStateIdle)
		if a.bootErr != nil {
			status.StartEnabled = false
			status.Message = a.bootErr.Error()
		}
		return status
	}
	status := a.services.Controller.Status()
	status.Message = domain.ReasonReady.Message()
	if status.State == domain.UIStateRecording {
		status.Message = domain.ReasonRecordingStarted.Message()
	} else if status.State == domain.UIStateProcessing {
		status.Message = domain.ReasonProcessing.Message()
	}
	return status
}

// GetSession returns the conversation the page is bound to. The page applies
// the returned address to its location without reloading.
func (a *App) GetSession() domain.Session {
	return a.services.Session
}

// GetTranscript returns the chat entries rendered so far.
func (a *App) GetTranscript() []domain.ChatMessage {
	if a.services.Controller == nil {
		return nil
	}
	return a.services.Controller.Transcript()
}

// CopySessionLink puts the shareable session address on the clipboard.
func (a *App) CopySessionLink() (string, error) {
	if err := a.requireReady(); err != nil {
		return "", err
	}
	link := a.services.Session.Address
	if err := (&wailsClipboard{}).SetText(a.ctx, link); err != nil {
		a.SessionError(domain.ErrorCodeClipboard, err.Error())
		return link, err
	}
	return link, nil
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	captions := "off"
	if a.cfg.Deepgram.APIKey != "" {
		captions = "Deepgram " + a.cfg.Deepgram.Model
	}
	return map[string]string{
		"backend":          a.cfg.Backend.BaseURL,
		"mode":             string(domain.ParseMode(a.cfg.Session.Mode)),
		"voice":            a.cfg.Session.VoiceID,
		"session":          a.services.Session.ID,
		"captions":         captions,
		"audioInput":       a.cfg.Audio.InputDevice,
		"audioInputFormat": a.cfg.Audio.InputFormat,
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.services.Controller == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// StateChanged emits recording lifecycle updates to the frontend.
func (a *App) StateChanged(state domain.UIState, reason domain.StateReason) {
	if a.ctx == nil {
		return
	}
	status := domain.StatusFor(state)
	runtime.EventsEmit(a.ctx, eventSession, map[string]any{
		"state":        string(state),
		"reason":       string(reason),
		"message":      reason.Message(),
		"startEnabled": status.StartEnabled,
		"stopEnabled":  status.StopEnabled,
	})
}

// SpeakStatus emits the text-to-speech button state.
func (a *App) SpeakStatus(busy bool, message string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventSpeak, map[string]any{"busy": busy, "message": message})
}

// Caption emits live caption text while recording.
func (a *App) Caption(text string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventCaption, map[string]string{"text": text})
}

// TranscriptReady emits the echo mode transcription.
func (a *App) TranscriptReady(text string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTranscript, map[string]string{"text": fmt.Sprintf("Transcript: %q", text)})
}

// ChatAppended emits new transcript entries.
func (a *App) ChatAppended(messages []domain.ChatMessage) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventChat, messages)
}

// HistoryChanged emits the history panel state.
func (a *App) HistoryChanged(view domain.HistoryView) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventHistory, view)
}

// SessionError emits errors to the UI.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeCaptions:
		return "Live captions unavailable"
	case domain.ErrorCodeClipboard:
		return "Clipboard write failed"
	case domain.ErrorCodePlayback:
		return "Playback failed"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return "Error: " + detail
	}
}

type wailsClipboard struct{}

func (c *wailsClipboard) SetText(ctx context.Context, text string) error {
	return runtime.ClipboardSetText(ctx, text)
}

// wailsPlayer hands audio to the page's audio element. The page reports the
// end of playback through App.PlaybackEnded.
type wailsPlayer struct {
	app *App
}

func (p *wailsPlayer) Play(_ context.Context, url string) error {
	if url == "" {
		return errors.New("no audio to play")
	}
	if p.app.ctx == nil {
		return errors.New("frontend is not attached")
	}
	log.Debug().Str("url", url).Msg("playing reply")
	runtime.EventsEmit(p.app.ctx, eventPlay, map[string]string{"url": url})
	return nil
}
