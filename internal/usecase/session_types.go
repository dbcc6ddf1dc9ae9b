package usecase

import (
	"vocaloop/internal/ports"
)

// activeRecording owns the resources of the capture in progress.
type activeRecording struct {
	cancel func()
	audio  ports.AudioSession
	buffer *Recording

	// captions is nil when live captions are disabled or failed to open.
	captions     ports.CaptionSession
	captionsDone chan struct{}
	audioDone    chan struct{}
}

// release tears down the capture without keeping any audio.
func (r *activeRecording) release() {
	_ = r.audio.Close()
	<-r.audioDone
	if r.captions != nil {
		_ = r.captions.Close()
		<-r.captionsDone
	}
	r.buffer.Discard()
	r.cancel()
}
