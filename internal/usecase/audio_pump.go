package usecase

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"vocaloop/internal/domain"
	"vocaloop/internal/ports"
)

// pumpCapture drains the microphone into the recording until the capture
// ends, teeing every fragment to the caption stream while it accepts audio.
func pumpCapture(
	capture ports.AudioSession,
	recording *Recording,
	captions ports.CaptionSession,
	chunkSize int,
	events ports.EventSink,
	done chan struct{},
) {
	defer close(done)

	if chunkSize < 256 {
		chunkSize = 4096
	}

	buf := make([]byte, chunkSize)
	for {
		n, err := capture.Read(buf)
		if n > 0 {
			recording.Append(buf[:n])
			if captions != nil {
				if sendErr := captions.SendAudio(buf[:n]); sendErr != nil {
					events.SessionError(domain.ErrorCodeCaptions, fmt.Sprintf("live captions stopped: %v", sendErr))
					captions = nil
				}
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				events.SessionError(domain.ErrorCodeCapture, fmt.Sprintf("audio capture error: %v", err))
			}
			return
		}
	}
}

func forwardCaptions(session ports.CaptionSession, events ports.EventSink, done chan struct{}) {
	defer close(done)

	for event := range session.Events() {
		if text := strings.TrimSpace(event.Text); text != "" {
			events.Caption(text)
		}
	}
}

func waitForCaptions(session ports.CaptionSession, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		done <- session.Wait()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		_ = session.Close()
		return <-done
	}
}
