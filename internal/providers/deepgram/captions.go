// Package deepgram streams the microphone recording to Deepgram's live
// endpoint and turns its results into caption events shown while recording.
package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"vocaloop/internal/domain"
	"vocaloop/internal/ports"
)

const defaultBaseURL = "https://api.deepgram.com/v1"

// Config controls the Deepgram live caption stream.
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
}

// Enabled reports whether captions can be requested at all.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// Captioner implements ports.CaptionProvider.
type Captioner struct {
	cfg    Config
	dialer *websocket.Dialer
}

func NewCaptioner(cfg Config) *Captioner {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "nova-2"
	}
	return &Captioner{cfg: cfg, dialer: websocket.DefaultDialer}
}

func (c *Captioner) StartStreaming(ctx context.Context, cfg ports.CaptionConfig) (ports.CaptionSession, error) {
	if !c.cfg.Enabled() {
		return nil, errors.New("DEEPGRAM_API_KEY is not configured")
	}

	target, err := listenURL(c.cfg, cfg)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+c.cfg.APIKey)

	conn, _, err := c.dialer.DialContext(ctx, target, headers)
	if err != nil {
		return nil, errors.Wrap(err, "connect to Deepgram")
	}

	stream := &captionStream{
		conn:   conn,
		events: make(chan domain.CaptionEvent, 64),
		audio:  make(chan []byte, 32),
		done:   make(chan struct{}),
	}

	stream.wg.Add(2)
	go stream.readLoop()
	go stream.writeLoop()
	go func() {
		stream.wg.Wait()
		close(stream.events)
		close(stream.done)
		_ = conn.Close()
	}()
	go func() {
		select {
		case <-ctx.Done():
			_ = stream.Close()
		case <-stream.done:
		}
	}()

	log.Debug().Str("model", c.cfg.Model).Msg("caption stream opened")
	return stream, nil
}

type captionStream struct {
	conn *websocket.Conn

	events chan domain.CaptionEvent
	audio  chan []byte
	done   chan struct{}
	wg     sync.WaitGroup

	errMu sync.Mutex
	err   error

	sendMu     sync.RWMutex
	sendClosed bool

	closeSendOnce sync.Once
	closeOnce     sync.Once
}

func (s *captionStream) SendAudio(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}

	s.sendMu.RLock()
	defer s.sendMu.RUnlock()
	if s.sendClosed {
		return errors.New("caption stream is already closed")
	}

	select {
	case s.audio <- append([]byte(nil), chunk...):
		return nil
	case <-s.done:
		if err := s.firstErr(); err != nil {
			return err
		}
		return errors.New("caption stream closed")
	}
}

func (s *captionStream) CloseSend() error {
	s.closeSendOnce.Do(func() {
		s.sendMu.Lock()
		s.sendClosed = true
		close(s.audio)
		s.sendMu.Unlock()
	})
	return nil
}

func (s *captionStream) Events() <-chan domain.CaptionEvent {
	return s.events
}

func (s *captionStream) Wait() error {
	<-s.done
	return s.firstErr()
}

func (s *captionStream) Close() error {
	s.closeOnce.Do(func() {
		// Closing the connection first unblocks senders waiting on a dead writer.
		_ = s.conn.Close()
		_ = s.CloseSend()
	})
	<-s.done
	return s.firstErr()
}

func (s *captionStream) firstErr() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *captionStream) recordErr(err error) {
	if err == nil {
		return
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return
	}

	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *captionStream) writeLoop() {
	defer s.wg.Done()

	for chunk := range s.audio {
		if err := s.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
			s.recordErr(fmt.Errorf("send audio: %w", err))
			return
		}
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`)); err != nil {
		s.recordErr(fmt.Errorf("close stream: %w", err))
	}
}

func (s *captionStream) readLoop() {
	defer s.wg.Done()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.recordErr(err)
			return
		}

		var msg liveMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}

		if strings.EqualFold(msg.Type, "Error") {
			text := strings.TrimSpace(msg.Description)
			if text == "" {
				text = "deepgram returned an unknown error"
			}
			s.recordErr(errors.New(text))
			return
		}

		text := msg.text()
		if text == "" {
			continue
		}
		s.publish(domain.CaptionEvent{Text: text, IsFinal: msg.IsFinal || msg.SpeechFinal})
	}
}

// publish drops captions the consumer is too slow for; they are previews.
func (s *captionStream) publish(event domain.CaptionEvent) {
	select {
	case s.events <- event:
	default:
	}
}

type liveMessage struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`

	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

func (m liveMessage) text() string {
	if len(m.Channel.Alternatives) == 0 {
		return ""
	}
	return strings.TrimSpace(m.Channel.Alternatives[0].Transcript)
}

// listenURL builds the websocket address. The recording is a WebM container,
// so Deepgram detects encoding and sample rate on its own.
func listenURL(cfg Config, stream ports.CaptionConfig) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}

	u, err := url.Parse(base + "/listen")
	if err != nil {
		return "", errors.Wrap(err, "invalid Deepgram base URL")
	}

	query := u.Query()
	query.Set("model", cfg.Model)
	query.Set("interim_results", "true")
	query.Set("smart_format", "true")
	if stream.Channels > 1 {
		query.Set("multichannel", "false")
	}
	if cfg.Language != "" {
		query.Set("language", cfg.Language)
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}
