package audio

import (
	"context"
	"os/exec"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// CommandPlayer plays remote audio with an external player such as ffplay.
type CommandPlayer struct {
	command string
	args    []string

	mu      sync.Mutex
	current *exec.Cmd
	done    chan struct{}
	onEnded func()
}

// NewCommandPlayer splits commandLine into the program and its leading
// arguments; the audio URL is appended as the last argument.
func NewCommandPlayer(commandLine string) *CommandPlayer {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		fields = []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "error"}
	}
	return &CommandPlayer{command: fields[0], args: fields[1:]}
}

// OnEnded registers the callback fired when a playback finishes on its own.
func (p *CommandPlayer) OnEnded(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onEnded = fn
}

// Play replaces any running playback and returns once the player started.
func (p *CommandPlayer) Play(ctx context.Context, url string) error {
	if strings.TrimSpace(url) == "" {
		return errors.New("no audio to play")
	}

	p.Stop()

	args := append(append([]string(nil), p.args...), url)
	cmd := exec.CommandContext(ctx, p.command, args...)
	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "start %s", p.command)
	}

	done := make(chan struct{})
	p.mu.Lock()
	p.current = cmd
	p.done = done
	p.mu.Unlock()

	go func() {
		err := cmd.Wait()
		close(done)

		p.mu.Lock()
		replaced := p.current != cmd
		if !replaced {
			p.current = nil
		}
		onEnded := p.onEnded
		p.mu.Unlock()

		if replaced {
			return
		}
		if err != nil {
			log.Warn().Err(err).Str("url", url).Msg("playback ended with error")
		}
		if onEnded != nil {
			onEnded()
		}
	}()
	return nil
}

// Stop kills the running playback, if any, without firing the end callback.
func (p *CommandPlayer) Stop() {
	p.mu.Lock()
	cmd := p.current
	p.current = nil
	p.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}

// Wait blocks until the current playback, if any, has exited.
func (p *CommandPlayer) Wait(ctx context.Context) error {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
