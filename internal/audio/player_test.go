package audio

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestCommandPlayerFiresOnEnded(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "play.sh", "#!/usr/bin/env bash\nexit 0\n")
	player := NewCommandPlayer(script)
	ended := make(chan struct{}, 1)
	player.OnEnded(func() { ended <- struct{}{} })

	if err := player.Play(context.Background(), "https://x/a.mp3"); err != nil {
		t.Fatalf("play failed: %v", err)
	}
	select {
	case <-ended:
	case <-time.After(3 * time.Second):
		t.Fatalf("expected playback end callback")
	}
}

func TestCommandPlayerReplacedPlaybackDoesNotFire(t *testing.T) {
	t.Parallel()

	long := writeScript(t, "long.sh", "#!/usr/bin/env bash\nexec sleep 5\n")
	player := NewCommandPlayer(long)
	ended := make(chan struct{}, 4)
	player.OnEnded(func() { ended <- struct{}{} })

	if err := player.Play(context.Background(), "https://x/a.mp3"); err != nil {
		t.Fatalf("play failed: %v", err)
	}
	player.Stop()

	select {
	case <-ended:
		t.Fatalf("stopped playback must not report an end")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestCommandPlayerRejectsEmptyURL(t *testing.T) {
	t.Parallel()

	player := NewCommandPlayer(filepath.Join(t.TempDir(), "player"))
	if err := player.Play(context.Background(), " "); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

func TestCommandPlayerWaitBlocksUntilExit(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "short.sh", "#!/usr/bin/env bash\nsleep 0.2\n")
	player := NewCommandPlayer(script)

	if err := player.Wait(context.Background()); err != nil {
		t.Fatalf("idle wait failed: %v", err)
	}
	if err := player.Play(context.Background(), "https://x/a.mp3"); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	started := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := player.Wait(ctx); err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if time.Since(started) < 100*time.Millisecond {
		t.Fatalf("expected wait to block until the player exited")
	}
}
