package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"vocaloop/internal/domain"
	"vocaloop/internal/ports"
)

// Config controls recording and upload behavior.
type Config struct {
	Audio        ports.AudioConfig
	Captions     ports.CaptionConfig
	Mode         domain.Mode
	VoiceID      string
	ChunkSize    int
	CaptionGrace time.Duration
}

// SessionController runs the idle -> recording -> processing -> idle cycle for
// one conversation session.
type SessionController struct {
	audio    ports.AudioCapture
	api      ports.VoiceAPI
	player   ports.Player
	captions ports.CaptionProvider
	events   ports.EventSink
	session  domain.Session
	cfg      Config
	now      func() time.Time

	transcript *Transcript

	mu      sync.Mutex
	state   domain.UIState
	current *activeRecording
}

// NewSessionController builds a controller bound to session. captions may be
// nil to disable live captions.
func NewSessionController(
	audio ports.AudioCapture,
	api ports.VoiceAPI,
	player ports.Player,
	captions ports.CaptionProvider,
	events ports.EventSink,
	session domain.Session,
	cfg Config,
) *SessionController {
	if cfg.ChunkSize < 256 {
		cfg.ChunkSize = 4096
	}
	if cfg.Mode == "" {
		cfg.Mode = domain.ModeChat
	}
	if cfg.CaptionGrace <= 0 {
		cfg.CaptionGrace = 2 * time.Second
	}
	return &SessionController{
		audio:      audio,
		api:        api,
		player:     player,
		captions:   captions,
		events:     events,
		session:    session,
		cfg:        cfg,
		now:        time.Now,
		transcript: NewTranscript(),
		state:      domain.UIStateIdle,
	}
}

// Session returns the conversation this controller is bound to.
func (c *SessionController) Session() domain.Session {
	return c.session
}

// Mode returns the upload contract used for recordings.
func (c *SessionController) Mode() domain.Mode {
	return c.cfg.Mode
}

// Transcript returns the chat entries rendered so far.
func (c *SessionController) Transcript() []domain.ChatMessage {
	return c.transcript.Messages()
}

// Status returns the current state and control affordances.
func (c *SessionController) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.StatusFor(c.state)
}

// Start opens the microphone and begins a new recording.
func (c *SessionController) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != domain.UIStateIdle {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = domain.UIStateRecording
	c.mu.Unlock()

	recordingCtx, cancel := context.WithCancel(ctx)
	capture, err := c.audio.Start(recordingCtx, c.cfg.Audio)
	if err != nil {
		cancel()
		c.setState(domain.UIStateIdle)
		log.Warn().Err(err).Msg("microphone unavailable")
		c.events.SessionError(domain.ErrorCodePermission, userMessage(err))
		c.events.StateChanged(domain.UIStateIdle, domain.ReasonMicUnavailable)
		return err
	}

	active := &activeRecording{
		cancel:    cancel,
		audio:     capture,
		buffer:    newRecording(string(c.cfg.Mode), c.now()),
		audioDone: make(chan struct{}),
	}

	if c.captions != nil {
		stream, err := c.captions.StartStreaming(recordingCtx, c.cfg.Captions)
		if err != nil {
			log.Warn().Err(err).Msg("live captions unavailable")
			c.events.SessionError(domain.ErrorCodeCaptions, fmt.Sprintf("live captions unavailable: %v", err))
		} else {
			active.captions = stream
			active.captionsDone = make(chan struct{})
			go forwardCaptions(stream, c.events, active.captionsDone)
		}
	}

	c.mu.Lock()
	c.current = active
	c.mu.Unlock()

	go pumpCapture(active.audio, active.buffer, active.captions, c.cfg.ChunkSize, c.events, active.audioDone)

	log.Info().Str("session", c.session.ID).Str("mode", string(c.cfg.Mode)).Msg("recording started")
	c.events.StateChanged(domain.UIStateRecording, domain.ReasonRecordingStarted)
	return nil
}

// Stop finalizes the recording, uploads it and renders the reply. Calling it
// while not recording returns ErrNotRecording and does nothing.
func (c *SessionController) Stop(ctx context.Context) (domain.TurnResult, error) {
	active, err := c.take(domain.UIStateProcessing)
	if err != nil {
		return domain.TurnResult{}, err
	}
	c.events.StateChanged(domain.UIStateProcessing, domain.ReasonProcessing)

	upload := c.finishCapture(active)
	if len(upload.Data) == 0 {
		c.fail(ErrNoAudio)
		return domain.TurnResult{Mode: c.cfg.Mode}, ErrNoAudio
	}

	log.Info().
		Str("session", c.session.ID).
		Str("file", upload.Filename).
		Int("bytes", len(upload.Data)).
		Msg("uploading recording")
	c.events.StateChanged(domain.UIStateProcessing, domain.ReasonUploading)

	var result domain.TurnResult
	if c.cfg.Mode == domain.ModeEcho {
		result, err = c.submitEcho(ctx, upload)
	} else {
		result, err = c.submitChat(ctx, upload)
	}

	audioURL := result.AudioURL
	if err != nil {
		audioURL = partialAudio(err)
		c.fail(err)
	} else {
		c.finish(domain.ReasonReplyPlaying)
	}

	if audioURL != "" {
		if playErr := c.player.Play(ctx, audioURL); playErr != nil {
			log.Warn().Err(playErr).Str("url", audioURL).Msg("playback failed")
			c.events.SessionError(domain.ErrorCodePlayback, playErr.Error())
		}
	}
	return result, err
}

// Abort discards the recording in progress without uploading it.
func (c *SessionController) Abort() error {
	active, err := c.take(domain.UIStateIdle)
	if err != nil {
		return err
	}
	active.release()
	log.Info().Str("session", c.session.ID).Msg("recording discarded")
	c.events.StateChanged(domain.UIStateIdle, domain.ReasonRecordingDiscarded)
	return nil
}

// PlaybackEnded re-arms the controller after the reply audio finished. In chat
// mode the user is prompted to speak again; capture is never restarted here.
func (c *SessionController) PlaybackEnded() {
	c.mu.Lock()
	idle := c.state == domain.UIStateIdle
	c.mu.Unlock()
	if !idle {
		return
	}

	if c.cfg.Mode == domain.ModeChat {
		c.events.StateChanged(domain.UIStateIdle, domain.ReasonSpeakAgain)
		return
	}
	c.events.StateChanged(domain.UIStateIdle, domain.ReasonReady)
}

// take detaches the active recording and moves to next atomically.
func (c *SessionController) take(next domain.UIState) (*activeRecording, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != domain.UIStateRecording || c.current == nil {
		return nil, ErrNotRecording
	}
	active := c.current
	c.current = nil
	c.state = next
	return active, nil
}

func (c *SessionController) finishCapture(active *activeRecording) ports.AudioUpload {
	if err := active.audio.Stop(); err != nil {
		c.events.SessionError(domain.ErrorCodeCapture, "failed to stop audio capture cleanly")
	}
	<-active.audioDone
	_ = active.audio.Close()

	if active.captions != nil {
		_ = active.captions.CloseSend()
		if err := waitForCaptions(active.captions, c.cfg.CaptionGrace); err != nil {
			log.Debug().Err(err).Msg("caption stream ended with error")
		}
		<-active.captionsDone
	}
	active.cancel()

	return active.buffer.Finalize()
}

func (c *SessionController) submitEcho(ctx context.Context, upload ports.AudioUpload) (domain.TurnResult, error) {
	reply, err := c.api.Echo(ctx, upload)
	result := domain.TurnResult{Mode: domain.ModeEcho, Transcription: reply.Transcription, AudioURL: reply.AudioURL}
	if reply.Transcription != "" {
		c.events.TranscriptReady(reply.Transcription)
	}
	return result, err
}

func (c *SessionController) submitChat(ctx context.Context, upload ports.AudioUpload) (domain.TurnResult, error) {
	reply, err := c.api.Chat(ctx, c.session.ID, c.cfg.VoiceID, upload)
	result := domain.TurnResult{
		Mode:          domain.ModeChat,
		Transcription: reply.Transcription,
		Reply:         reply.Reply,
		AudioURL:      reply.AudioURL,
	}
	if reply.Transcription != "" || reply.Reply != "" {
		appended := c.transcript.Append(
			domain.ChatMessage{Sender: domain.SenderUser, Text: reply.Transcription},
			domain.ChatMessage{Sender: domain.SenderAssistant, Text: reply.Reply},
		)
		c.events.ChatAppended(appended)
	}
	return result, err
}

func (c *SessionController) finish(reason domain.StateReason) {
	c.setState(domain.UIStateIdle)
	c.events.StateChanged(domain.UIStateIdle, reason)
}

func (c *SessionController) fail(err error) {
	code := classify(err)
	log.Warn().Err(err).Str("code", string(code)).Str("session", c.session.ID).Msg("turn failed")
	c.setState(domain.UIStateIdle)
	c.events.SessionError(code, userMessage(err))
	c.events.StateChanged(domain.UIStateIdle, domain.ReasonReplyFailed)
}

func (c *SessionController) setState(state domain.UIState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
}
