package deepgram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"vocaloop/internal/domain"
	"vocaloop/internal/ports"
)

func TestNewCaptionerDefaults(t *testing.T) {
	t.Parallel()

	c := NewCaptioner(Config{})
	if c.cfg.BaseURL != defaultBaseURL {
		t.Fatalf("unexpected base url: %q", c.cfg.BaseURL)
	}
	if c.cfg.Model != "nova-2" {
		t.Fatalf("unexpected model: %q", c.cfg.Model)
	}
	if c.cfg.Enabled() {
		t.Fatalf("captioner without key must be disabled")
	}
}

func TestStartStreamingRequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := NewCaptioner(Config{}).StartStreaming(context.Background(), ports.CaptionConfig{})
	if err == nil {
		t.Fatalf("expected missing key error")
	}
}

func TestListenURL(t *testing.T) {
	t.Parallel()

	got, err := listenURL(Config{BaseURL: "https://api.deepgram.com/v1/", Model: "nova-2", Language: "en-US"}, ports.CaptionConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(got, "wss://api.deepgram.com/v1/listen?") {
		t.Fatalf("unexpected ws url: %s", got)
	}
	for _, want := range []string{"model=nova-2", "interim_results=true", "language=en-US"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %s in url: %s", want, got)
		}
	}
	if strings.Contains(got, "encoding=") {
		t.Fatalf("containerized audio must not declare an encoding: %s", got)
	}

	got, err = listenURL(Config{BaseURL: "http://localhost:9000"}, ports.CaptionConfig{})
	if err != nil || !strings.HasPrefix(got, "ws://localhost:9000/listen") {
		t.Fatalf("unexpected ws url: %s (%v)", got, err)
	}
}

func TestListenURLInvalidBase(t *testing.T) {
	t.Parallel()

	if _, err := listenURL(Config{BaseURL: ":// bad"}, ports.CaptionConfig{}); err == nil {
		t.Fatalf("expected invalid base url error")
	}
}

func TestCaptionStreamRoundTrip(t *testing.T) {
	t.Parallel()

	received := make(chan []byte, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Token key" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			kind, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if kind == websocket.TextMessage {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			received <- payload
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":" hello "}]}}`))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":""}]}}`))
		}
	}))
	defer server.Close()

	captioner := NewCaptioner(Config{APIKey: "key", BaseURL: server.URL})
	stream, err := captioner.StartStreaming(context.Background(), ports.CaptionConfig{})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if err := stream.SendAudio([]byte("opus")); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	select {
	case event := <-stream.Events():
		if event != (domain.CaptionEvent{Text: "hello"}) {
			t.Fatalf("unexpected caption: %+v", event)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("expected caption event")
	}
	if got := string(<-received); got != "opus" {
		t.Fatalf("unexpected audio on the wire: %q", got)
	}

	if err := stream.CloseSend(); err != nil {
		t.Fatalf("close send failed: %v", err)
	}
	if err := stream.Wait(); err != nil {
		t.Fatalf("expected clean shutdown, got %v", err)
	}
	if err := stream.SendAudio([]byte("late")); err == nil {
		t.Fatalf("expected send after close to fail")
	}
}

func TestCaptionStreamProviderError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := (&websocket.Upgrader{}).Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"Error","description":"bad audio"}`))
		_, _, _ = conn.ReadMessage()
	}))
	defer server.Close()

	stream, err := NewCaptioner(Config{APIKey: "key", BaseURL: server.URL}).StartStreaming(context.Background(), ports.CaptionConfig{})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	live := stream.(*captionStream)
	deadline := time.Now().Add(3 * time.Second)
	for live.firstErr() == nil && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if err := stream.Close(); err == nil || err.Error() != "bad audio" {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestCaptionStreamRecordErrIgnoresNormalClose(t *testing.T) {
	t.Parallel()

	s := &captionStream{}
	s.recordErr(&websocket.CloseError{Code: websocket.CloseNormalClosure})
	if s.firstErr() != nil {
		t.Fatalf("expected normal close to be ignored")
	}
	s.recordErr(errors.New("first"))
	s.recordErr(errors.New("second"))
	if s.firstErr() == nil || s.firstErr().Error() != "first" {
		t.Fatalf("expected first error to win, got %v", s.firstErr())
	}
}

func TestCaptionStreamCloseSendIsIdempotent(t *testing.T) {
	t.Parallel()

	s := &captionStream{audio: make(chan []byte, 1)}
	if err := s.CloseSend(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.CloseSend(); err != nil {
		t.Fatalf("unexpected second error: %v", err)
	}
	if err := s.SendAudio([]byte("x")); err == nil {
		t.Fatalf("expected closed error")
	}
}
