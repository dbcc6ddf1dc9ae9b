package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	DefaultBackendURL = "http://localhost:8000"
	DefaultVoiceID    = "en-US-natalie"
)

// Config stores runtime configuration for the voice client.
type Config struct {
	Backend   BackendConfig
	Session   SessionConfig
	Audio     AudioConfig
	Deepgram  DeepgramConfig
	Logging   LoggingConfig
	Telemetry TelemetryConfig
}

type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

type SessionConfig struct {
	// PageURL is the address the session token is read from and written back to.
	PageURL      string
	ID           string
	Mode         string
	VoiceID      string
	ChunkSize    int
	CaptionGrace time.Duration
}

type AudioConfig struct {
	RecorderCommand string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
	PlayerCommand   string
}

type DeepgramConfig struct {
	APIKey     string
	APIBaseURL string
	Model      string
	Language   string
}

type LoggingConfig struct {
	Level string
	File  string
}

type TelemetryConfig struct {
	Enabled bool
	Dir     string
}

type fileConfig struct {
	Backend struct {
		URL       string `toml:"url"`
		TimeoutMS int    `toml:"timeout_ms"`
	} `toml:"backend"`
	Session struct {
		PageURL string `toml:"page_url"`
		ID      string `toml:"id"`
		Mode    string `toml:"mode"`
		VoiceID string `toml:"voice_id"`
	} `toml:"session"`
	Audio struct {
		RecorderCommand string `toml:"ffmpeg_command"`
		InputFormat     string `toml:"input_format"`
		InputDevice     string `toml:"input_device"`
		SampleRate      int    `toml:"sample_rate"`
		Channels        int    `toml:"channels"`
		PlayerCommand   string `toml:"player_command"`
	} `toml:"audio"`
	Deepgram struct {
		APIKey   string `toml:"api_key"`
		BaseURL  string `toml:"api_base"`
		Model    string `toml:"model"`
		Language string `toml:"language"`
	} `toml:"deepgram"`
	Logging struct {
		Level string `toml:"level"`
		File  string `toml:"file"`
	} `toml:"logging"`
	Telemetry struct {
		Enabled *bool  `toml:"enabled"`
		Dir     string `toml:"dir"`
	} `toml:"telemetry"`
}

// Load resolves configuration from defaults, the optional config file, a
// local .env file and environment variables, in increasing precedence.
func Load() (Config, error) {
	_ = godotenv.Load()

	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}
	stateDir := filepath.Join(home, ".local", "state", "vocaloop")

	cfg := Config{
		Backend: BackendConfig{
			BaseURL: DefaultBackendURL,
			Timeout: 2 * time.Minute,
		},
		Session: SessionConfig{
			PageURL:      DefaultBackendURL + "/",
			Mode:         "chat",
			VoiceID:      DefaultVoiceID,
			ChunkSize:    4096,
			CaptionGrace: 1500 * time.Millisecond,
		},
		Audio: AudioConfig{
			RecorderCommand: "ffmpeg",
			InputFormat:     "pulse",
			InputDevice:     "default",
			SampleRate:      48000,
			Channels:        1,
			PlayerCommand:   "ffplay -nodisp -autoexit -loglevel error",
		},
		Deepgram: DeepgramConfig{
			APIBaseURL: "https://api.deepgram.com/v1",
			Model:      "nova-2",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(stateDir, "vocaloop.log"),
		},
		Telemetry: TelemetryConfig{
			Dir: stateDir,
		},
	}

	if path := configFilePath(); path != "" {
		var fc fileConfig
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			return Config{}, errors.Wrapf(err, "parse config file %s", path)
		}
		applyFile(&cfg, fc)
	}

	applyEnv(&cfg)

	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 48000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Session.ChunkSize < 256 {
		cfg.Session.ChunkSize = 4096
	}
	if cfg.Backend.Timeout <= 0 {
		cfg.Backend.Timeout = 2 * time.Minute
	}

	return cfg, nil
}

func applyFile(cfg *Config, fc fileConfig) {
	cfg.Backend.BaseURL = firstNonEmpty(fc.Backend.URL, cfg.Backend.BaseURL)
	if fc.Backend.TimeoutMS > 0 {
		cfg.Backend.Timeout = time.Duration(fc.Backend.TimeoutMS) * time.Millisecond
	}

	cfg.Session.PageURL = firstNonEmpty(fc.Session.PageURL, cfg.Session.PageURL)
	cfg.Session.ID = firstNonEmpty(fc.Session.ID, cfg.Session.ID)
	cfg.Session.Mode = firstNonEmpty(fc.Session.Mode, cfg.Session.Mode)
	cfg.Session.VoiceID = firstNonEmpty(fc.Session.VoiceID, cfg.Session.VoiceID)

	cfg.Audio.RecorderCommand = firstNonEmpty(fc.Audio.RecorderCommand, cfg.Audio.RecorderCommand)
	cfg.Audio.InputFormat = firstNonEmpty(fc.Audio.InputFormat, cfg.Audio.InputFormat)
	cfg.Audio.InputDevice = firstNonEmpty(fc.Audio.InputDevice, cfg.Audio.InputDevice)
	cfg.Audio.PlayerCommand = firstNonEmpty(fc.Audio.PlayerCommand, cfg.Audio.PlayerCommand)
	if fc.Audio.SampleRate > 0 {
		cfg.Audio.SampleRate = fc.Audio.SampleRate
	}
	if fc.Audio.Channels > 0 {
		cfg.Audio.Channels = fc.Audio.Channels
	}

	cfg.Deepgram.APIKey = firstNonEmpty(fc.Deepgram.APIKey, cfg.Deepgram.APIKey)
	cfg.Deepgram.APIBaseURL = firstNonEmpty(fc.Deepgram.BaseURL, cfg.Deepgram.APIBaseURL)
	cfg.Deepgram.Model = firstNonEmpty(fc.Deepgram.Model, cfg.Deepgram.Model)
	cfg.Deepgram.Language = firstNonEmpty(fc.Deepgram.Language, cfg.Deepgram.Language)

	cfg.Logging.Level = firstNonEmpty(fc.Logging.Level, cfg.Logging.Level)
	cfg.Logging.File = expandTilde(firstNonEmpty(fc.Logging.File, cfg.Logging.File))

	if fc.Telemetry.Enabled != nil {
		cfg.Telemetry.Enabled = *fc.Telemetry.Enabled
	}
	cfg.Telemetry.Dir = expandTilde(firstNonEmpty(fc.Telemetry.Dir, cfg.Telemetry.Dir))
}

func applyEnv(cfg *Config) {
	cfg.Backend.BaseURL = envOrDefault("VOCALOOP_BACKEND_URL", cfg.Backend.BaseURL)
	if ms := envOrDefaultInt("VOCALOOP_BACKEND_TIMEOUT_MS", 0); ms > 0 {
		cfg.Backend.Timeout = time.Duration(ms) * time.Millisecond
	}

	cfg.Session.PageURL = envOrDefault("VOCALOOP_PAGE_URL", cfg.Session.PageURL)
	cfg.Session.ID = envOrDefault("VOCALOOP_SESSION_ID", cfg.Session.ID)
	cfg.Session.Mode = envOrDefault("VOCALOOP_MODE", cfg.Session.Mode)
	cfg.Session.VoiceID = envOrDefault("VOCALOOP_VOICE_ID", cfg.Session.VoiceID)
	cfg.Session.ChunkSize = envOrDefaultInt("VOCALOOP_AUDIO_CHUNK_SIZE", cfg.Session.ChunkSize)
	cfg.Session.CaptionGrace = time.Duration(
		firstNonNegativeInt("VOCALOOP_CAPTION_GRACE_MS", "DEEPGRAM_STREAMING_GRACE_MS", int(cfg.Session.CaptionGrace/time.Millisecond)),
	) * time.Millisecond

	cfg.Audio.RecorderCommand = envOrDefault("VOCALOOP_FFMPEG_COMMAND", cfg.Audio.RecorderCommand)
	cfg.Audio.InputFormat = envOrDefault("VOCALOOP_AUDIO_INPUT_FORMAT", cfg.Audio.InputFormat)
	cfg.Audio.InputDevice = firstNonEmpty(
		os.Getenv("VOCALOOP_AUDIO_INPUT_DEVICE"),
		os.Getenv("PULSE_SOURCE"),
		cfg.Audio.InputDevice,
	)
	cfg.Audio.SampleRate = envOrDefaultInt("VOCALOOP_SAMPLE_RATE", cfg.Audio.SampleRate)
	cfg.Audio.Channels = envOrDefaultInt("VOCALOOP_CHANNELS", cfg.Audio.Channels)
	cfg.Audio.PlayerCommand = envOrDefault("VOCALOOP_PLAYER_COMMAND", cfg.Audio.PlayerCommand)

	cfg.Deepgram.APIKey = envOrDefault("DEEPGRAM_API_KEY", cfg.Deepgram.APIKey)
	cfg.Deepgram.APIBaseURL = envOrDefault("DEEPGRAM_API_BASE", cfg.Deepgram.APIBaseURL)
	cfg.Deepgram.Model = envOrDefault("DEEPGRAM_MODEL", cfg.Deepgram.Model)
	cfg.Deepgram.Language = envOrDefault("DEEPGRAM_LANGUAGE", cfg.Deepgram.Language)

	cfg.Logging.Level = envOrDefault("VOCALOOP_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.File = expandTilde(envOrDefault("VOCALOOP_LOG_FILE", cfg.Logging.File))

	cfg.Telemetry.Enabled = envOrDefaultBool("VOCALOOP_TELEMETRY", cfg.Telemetry.Enabled)
	cfg.Telemetry.Dir = expandTilde(envOrDefault("VOCALOOP_TELEMETRY_DIR", cfg.Telemetry.Dir))
}

func configFilePath() string {
	if explicit := strings.TrimSpace(os.Getenv("VOCALOOP_CONFIG")); explicit != "" {
		return expandTilde(explicit)
	}

	var configDir string
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		configDir = filepath.Join(xdg, "vocaloop")
	} else if home, err := os.UserHomeDir(); err == nil {
		configDir = filepath.Join(home, ".config", "vocaloop")
	} else {
		return ""
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func firstNonNegativeInt(primary string, secondary string, fallback int) int {
	for _, key := range []string{primary, secondary} {
		value := strings.TrimSpace(os.Getenv(key))
		if value == "" {
			continue
		}
		parsed, err := strconv.Atoi(value)
		if err == nil && parsed >= 0 {
			return parsed
		}
	}
	return fallback
}
