package usecase

import (
	"bytes"
	"strings"
	"sync"
	"time"

	"vocaloop/internal/ports"
)

// Recording accumulates the encoded fragments of one capture. It is
// transient: finalized into a single upload on stop or discarded.
type Recording struct {
	mu        sync.Mutex
	prefix    string
	startedAt time.Time
	fragments [][]byte
	size      int
}

func newRecording(prefix string, startedAt time.Time) *Recording {
	return &Recording{prefix: prefix, startedAt: startedAt}
}

// Append stores a copy of chunk.
func (r *Recording) Append(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fragments = append(r.fragments, append([]byte(nil), chunk...))
	r.size += len(chunk)
}

func (r *Recording) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

func (r *Recording) Fragments() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fragments)
}

// Finalize joins the fragments into one upload and empties the recording.
func (r *Recording) Finalize() ports.AudioUpload {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := bytes.Join(r.fragments, nil)
	r.fragments = nil
	r.size = 0
	return ports.AudioUpload{
		Filename:    recordingFilename(r.prefix, r.startedAt),
		ContentType: ports.RecordingContentType,
		Data:        data,
	}
}

// Discard drops every buffered fragment.
func (r *Recording) Discard() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fragments = nil
	r.size = 0
}

// recordingFilename names an upload like "chat-recording-2024-05-01T10-20-30-123Z.webm".
func recordingFilename(prefix string, at time.Time) string {
	if prefix == "" {
		prefix = "recording"
	}
	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(at.UTC().Format("2006-01-02T15:04:05.000Z"))
	return prefix + "-recording-" + stamp + ".webm"
}
