package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"vocaloop/internal/ports"
)

const (
	defaultStartupGrace = 250 * time.Millisecond
	stopTimeout         = 1200 * time.Millisecond
)

// MicCapture records the microphone as a WebM/Opus stream through ffmpeg.
type MicCapture struct {
	command      string
	startupGrace time.Duration
}

func NewMicCapture(command string) *MicCapture {
	if strings.TrimSpace(command) == "" {
		command = "ffmpeg"
	}
	return &MicCapture{command: command, startupGrace: defaultStartupGrace}
}

func (c *MicCapture) Start(ctx context.Context, cfg ports.AudioConfig) (ports.AudioSession, error) {
	cmd := exec.CommandContext(ctx, c.command, captureArgs(cfg)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	// An explicit pipe keeps the read side open after the process exits so the
	// trailing container bytes written on interrupt are not lost.
	stdout, stdoutWriter, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrMicrophoneUnavailable, err)
	}
	cmd.Stdout = stdoutWriter
	if err := cmd.Start(); err != nil {
		_ = stdout.Close()
		_ = stdoutWriter.Close()
		return nil, fmt.Errorf("%w: start %s: %v", ports.ErrMicrophoneUnavailable, c.command, err)
	}
	_ = stdoutWriter.Close()

	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()
		close(exited)
	}()

	// A recorder that cannot open the device exits almost immediately.
	select {
	case err := <-exited:
		detail := trimmed(stderr.String())
		if err != nil && detail == "" {
			detail = err.Error()
		}
		if detail == "" {
			detail = "recorder exited before capture started"
		}
		_ = stdout.Close()
		return nil, fmt.Errorf("%w: %s", ports.ErrMicrophoneUnavailable, detail)
	case <-time.After(c.startupGrace):
	}

	log.Debug().Str("device", cfg.InputDevice).Str("format", cfg.InputFormat).Msg("microphone capture started")
	return &micSession{
		stdout:  stdout,
		stderr:  &stderr,
		process: cmd.Process,
		exited:  exited,
	}, nil
}

func captureArgs(cfg ports.AudioConfig) []string {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 48000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}

	return []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "error",
		"-f", cfg.InputFormat,
		"-i", cfg.InputDevice,
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-c:a", "libopus",
		"-f", "webm",
		"-",
	}
}

type micSession struct {
	stdout *os.File
	stderr *bytes.Buffer

	process *os.Process
	exited  <-chan error

	stopOnce sync.Once
	stopErr  error
}

func (s *micSession) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

func (s *micSession) Close() error {
	stopErr := s.Stop()
	if err := s.stdout.Close(); err != nil && !errors.Is(err, os.ErrClosed) && stopErr == nil {
		stopErr = err
	}
	return stopErr
}

// Stop asks ffmpeg to finalize the container and waits for it to exit. The
// stream stays readable until ffmpeg closes its end of the pipe.
func (s *micSession) Stop() error {
	s.stopOnce.Do(func() {
		if s.process != nil {
			_ = s.process.Signal(os.Interrupt)
		}

		var err error
		select {
		case err = <-s.exited:
		case <-time.After(stopTimeout):
			if s.process != nil {
				_ = s.process.Kill()
			}
			err = <-s.exited
		}
		s.stopErr = ignoreExitStatus(err)

		if s.stopErr != nil && s.stderr.Len() > 0 {
			s.stopErr = fmt.Errorf("%w: %s", s.stopErr, trimmed(s.stderr.String()))
		}
	})
	return s.stopErr
}

// ignoreExitStatus treats a non-zero exit after an interrupt as a clean stop.
func ignoreExitStatus(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

func trimmed(input string) string {
	return strings.TrimSpace(input)
}
