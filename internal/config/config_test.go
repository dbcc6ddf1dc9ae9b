package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("VOCALOOP_CONFIG", "")
	t.Setenv("DEEPGRAM_API_KEY", "")
	t.Setenv("PULSE_SOURCE", "")
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Backend.BaseURL != "http://localhost:8000" || cfg.Backend.Timeout != 2*time.Minute {
		t.Fatalf("unexpected backend config: %+v", cfg.Backend)
	}
	if cfg.Session.Mode != "chat" || cfg.Session.VoiceID != DefaultVoiceID || cfg.Session.PageURL != "http://localhost:8000/" {
		t.Fatalf("unexpected session config: %+v", cfg.Session)
	}
	if cfg.Audio.SampleRate != 48000 || cfg.Audio.Channels != 1 || cfg.Audio.RecorderCommand != "ffmpeg" {
		t.Fatalf("unexpected audio config: %+v", cfg.Audio)
	}
	if cfg.Deepgram.APIKey != "" {
		t.Fatalf("expected captions disabled by default")
	}
	if want := filepath.Join(home, ".local", "state", "vocaloop", "vocaloop.log"); cfg.Logging.File != want {
		t.Fatalf("unexpected log file: %s", cfg.Logging.File)
	}
	if cfg.Telemetry.Enabled {
		t.Fatalf("expected telemetry disabled by default")
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, ".config", "vocaloop", "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	body := `
[backend]
url = "https://voice.example.com"
timeout_ms = 5000

[session]
mode = "echo"
voice_id = "en-UK-hazel"

[audio]
input_device = "mic1"
sample_rate = 16000

[logging]
file = "~/logs/voice.log"

[telemetry]
enabled = true
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Backend.BaseURL != "https://voice.example.com" || cfg.Backend.Timeout != 5*time.Second {
		t.Fatalf("unexpected backend config: %+v", cfg.Backend)
	}
	if cfg.Session.Mode != "echo" || cfg.Session.VoiceID != "en-UK-hazel" {
		t.Fatalf("unexpected session config: %+v", cfg.Session)
	}
	if cfg.Audio.InputDevice != "mic1" || cfg.Audio.SampleRate != 16000 || cfg.Audio.Channels != 1 {
		t.Fatalf("unexpected audio config: %+v", cfg.Audio)
	}
	if cfg.Logging.File != filepath.Join(home, "logs", "voice.log") {
		t.Fatalf("expected tilde expansion, got %s", cfg.Logging.File)
	}
	if !cfg.Telemetry.Enabled {
		t.Fatalf("expected telemetry enabled from file")
	}
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "custom.toml")
	if err := os.WriteFile(path, []byte("[session]\nvoice_id = \"from-file\"\n"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	t.Setenv("VOCALOOP_CONFIG", path)
	t.Setenv("VOCALOOP_VOICE_ID", "from-env")
	t.Setenv("VOCALOOP_BACKEND_URL", "http://127.0.0.1:9000")
	t.Setenv("VOCALOOP_SESSION_ID", "abc123")
	t.Setenv("DEEPGRAM_API_KEY", "test-key")
	t.Setenv("DEEPGRAM_MODEL", "nova-3")
	t.Setenv("VOCALOOP_FFMPEG_COMMAND", "my-ffmpeg")
	t.Setenv("VOCALOOP_AUDIO_INPUT_FORMAT", "alsa")
	t.Setenv("VOCALOOP_CHANNELS", "2")
	t.Setenv("VOCALOOP_AUDIO_CHUNK_SIZE", "512")
	t.Setenv("VOCALOOP_CAPTION_GRACE_MS", "25")
	t.Setenv("VOCALOOP_TELEMETRY", "on")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Session.VoiceID != "from-env" || cfg.Session.ID != "abc123" {
		t.Fatalf("unexpected session config: %+v", cfg.Session)
	}
	if cfg.Backend.BaseURL != "http://127.0.0.1:9000" {
		t.Fatalf("unexpected backend url: %s", cfg.Backend.BaseURL)
	}
	if cfg.Deepgram.APIKey != "test-key" || cfg.Deepgram.Model != "nova-3" {
		t.Fatalf("unexpected deepgram config: %+v", cfg.Deepgram)
	}
	if cfg.Audio.RecorderCommand != "my-ffmpeg" || cfg.Audio.InputFormat != "alsa" || cfg.Audio.Channels != 2 {
		t.Fatalf("unexpected audio config: %+v", cfg.Audio)
	}
	if cfg.Session.ChunkSize != 512 || cfg.Session.CaptionGrace != 25*time.Millisecond {
		t.Fatalf("unexpected session tuning: %+v", cfg.Session)
	}
	if !cfg.Telemetry.Enabled {
		t.Fatalf("expected telemetry enabled from env")
	}
}

func TestLoadMalformedConfigFile(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "broken.toml")
	if err := os.WriteFile(path, []byte("[backend\nurl = "), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	t.Setenv("VOCALOOP_CONFIG", path)

	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadInvalidNumericValuesFallback(t *testing.T) {
	isolate(t)
	t.Setenv("VOCALOOP_SAMPLE_RATE", "bad")
	t.Setenv("VOCALOOP_CHANNELS", "-1")
	t.Setenv("VOCALOOP_AUDIO_CHUNK_SIZE", "5")
	t.Setenv("VOCALOOP_CAPTION_GRACE_MS", "bad")
	t.Setenv("VOCALOOP_BACKEND_TIMEOUT_MS", "-3")
	t.Setenv("VOCALOOP_TELEMETRY", "not-bool")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Audio.SampleRate != 48000 {
		t.Fatalf("expected default sample rate, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.Channels != 1 {
		t.Fatalf("expected default channels, got %d", cfg.Audio.Channels)
	}
	if cfg.Session.ChunkSize != 4096 {
		t.Fatalf("expected chunk size fallback, got %d", cfg.Session.ChunkSize)
	}
	if cfg.Session.CaptionGrace != 1500*time.Millisecond {
		t.Fatalf("expected default grace, got %s", cfg.Session.CaptionGrace)
	}
	if cfg.Backend.Timeout != 2*time.Minute {
		t.Fatalf("expected default timeout, got %s", cfg.Backend.Timeout)
	}
	if cfg.Telemetry.Enabled {
		t.Fatalf("expected telemetry to stay disabled")
	}
}
