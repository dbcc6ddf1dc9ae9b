package bootstrap

import (
	"strings"

	"github.com/rs/zerolog/log"

	"vocaloop/internal/audio"
	"vocaloop/internal/config"
	"vocaloop/internal/domain"
	"vocaloop/internal/ports"
	"vocaloop/internal/providers/deepgram"
	"vocaloop/internal/providers/voiceapi"
	"vocaloop/internal/session"
	"vocaloop/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Config     config.Config
	Session    domain.Session
	API        *voiceapi.Client
	Controller *usecase.SessionController
	History    *usecase.HistoryPanel
	Speaker    *usecase.Speaker
	// Player is set when Build created the command player itself.
	Player *audio.CommandPlayer
}

// Overrides carries per-invocation settings that win over the loaded config.
type Overrides struct {
	SessionID  string
	VoiceID    string
	Mode       string
	BackendURL string
}

// Apply copies the non-empty overrides onto cfg.
func (o Overrides) Apply(cfg *config.Config) {
	if v := strings.TrimSpace(o.SessionID); v != "" {
		cfg.Session.ID = v
	}
	if v := strings.TrimSpace(o.VoiceID); v != "" {
		cfg.Session.VoiceID = v
	}
	if v := strings.TrimSpace(o.Mode); v != "" {
		cfg.Session.Mode = v
	}
	if v := strings.TrimSpace(o.BackendURL); v != "" {
		cfg.Backend.BaseURL = v
	}
}

// Build loads configuration and wires all dependencies for the current runtime.
func Build(eventSink ports.EventSink, player ports.Player, overrides Overrides) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}
	overrides.Apply(&cfg)
	return Assemble(cfg, eventSink, player)
}

// Assemble wires the runtime graph from an already resolved config. A nil
// player is replaced by an external command player.
func Assemble(cfg config.Config, eventSink ports.EventSink, player ports.Player) (Services, error) {
	client, err := voiceapi.NewClient(voiceapi.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
	})
	if err != nil {
		return Services{}, err
	}

	address := cfg.Session.PageURL
	if cfg.Session.ID != "" {
		address = session.ShareLink(address, cfg.Session.ID)
	}
	identity := session.Resolve(address)

	services := Services{Config: cfg, Session: identity, API: client}
	if player == nil {
		services.Player = audio.NewCommandPlayer(cfg.Audio.PlayerCommand)
		player = services.Player
	}

	var captions ports.CaptionProvider
	captionCfg := deepgram.Config{
		APIKey:   cfg.Deepgram.APIKey,
		BaseURL:  cfg.Deepgram.APIBaseURL,
		Model:    cfg.Deepgram.Model,
		Language: cfg.Deepgram.Language,
	}
	if captionCfg.Enabled() {
		captions = deepgram.NewCaptioner(captionCfg)
	}

	services.Controller = usecase.NewSessionController(
		audio.NewMicCapture(cfg.Audio.RecorderCommand),
		client,
		player,
		captions,
		eventSink,
		identity,
		usecase.Config{
			Audio: ports.AudioConfig{
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    cfg.Audio.Channels,
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
			},
			Captions: ports.CaptionConfig{
				SampleRate: cfg.Audio.SampleRate,
				Channels:   cfg.Audio.Channels,
			},
			Mode:         domain.ParseMode(cfg.Session.Mode),
			VoiceID:      cfg.Session.VoiceID,
			ChunkSize:    cfg.Session.ChunkSize,
			CaptionGrace: cfg.Session.CaptionGrace,
		},
	)
	services.History = usecase.NewHistoryPanel(client, eventSink, identity.ID)
	services.Speaker = usecase.NewSpeaker(client, player, eventSink)

	if services.Player != nil {
		services.Player.OnEnded(services.Controller.PlaybackEnded)
	}

	log.Info().
		Str("session", identity.ID).
		Bool("resumed", identity.Resumed).
		Str("backend", client.BaseURL()).
		Bool("captions", captions != nil).
		Msg("runtime assembled")

	return services, nil
}
