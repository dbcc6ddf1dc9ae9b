package voiceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"vocaloop/internal/domain"
	"vocaloop/internal/ports"
)

const (
	instrumentationName = "vocaloop/voiceapi"
	maxResponseBytes    = 4 << 20
)

// Config controls the backend HTTP client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client implements ports.VoiceAPI over the backend's HTTP endpoints.
type Client struct {
	base     *url.URL
	http     *http.Client
	tracer   trace.Tracer
	requests metric.Int64Counter
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "http://localhost:8000"
	}
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid backend URL %q", cfg.BaseURL)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("backend URL %q must be absolute", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 2 * time.Minute
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	requests, err := otel.Meter(instrumentationName).Int64Counter(
		"voiceapi.requests",
		metric.WithDescription("Backend requests by endpoint and outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create request counter")
	}

	return &Client{
		base:     base,
		http:     httpClient,
		tracer:   otel.Tracer(instrumentationName),
		requests: requests,
	}, nil
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.base.String()
}

type generateAudioRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id"`
}

type generateAudioResponse struct {
	AudioURL string `json:"audio_url"`
}

// GenerateAudio posts text for one-shot speech synthesis and returns the
// playable audio reference.
func (c *Client) GenerateAudio(ctx context.Context, text string, voiceID string) (string, error) {
	body, err := json.Marshal(generateAudioRequest{Text: text, VoiceID: voiceID})
	if err != nil {
		return "", errors.Wrap(err, "encode generate-audio request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(nil, "generate-audio"), bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "build generate-audio request")
	}
	req.Header.Set("Content-Type", "application/json")

	var out generateAudioResponse
	if err := c.do(ctx, "generate-audio", req, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.AudioURL) == "" {
		return "", missingAudioURL("audio_url")
	}
	return out.AudioURL, nil
}

// Echo uploads a recording to be transcribed and re-voiced.
func (c *Client) Echo(ctx context.Context, upload ports.AudioUpload) (ports.EchoReply, error) {
	req, err := c.uploadRequest(ctx, c.endpoint(nil, "tts", "echo"), upload)
	if err != nil {
		return ports.EchoReply{}, err
	}

	var out ports.EchoReply
	if err := c.do(ctx, "tts-echo", req, &out); err != nil {
		return ports.EchoReply{}, err
	}
	if strings.TrimSpace(out.AudioURL) == "" {
		return out, missingAudioURL("murf_audio_url")
	}
	return out, nil
}

// Chat uploads one user turn of the conversation bound to sessionID.
func (c *Client) Chat(ctx context.Context, sessionID string, voiceID string, upload ports.AudioUpload) (ports.ChatReply, error) {
	var query url.Values
	if voiceID != "" {
		query = url.Values{"voice_id": {voiceID}}
	}
	req, err := c.uploadRequest(ctx, c.endpoint(query, "agent", "chat", sessionID), upload)
	if err != nil {
		return ports.ChatReply{}, err
	}

	var out ports.ChatReply
	if err := c.do(ctx, "agent-chat", req, &out); err != nil {
		return ports.ChatReply{}, err
	}
	if strings.TrimSpace(out.AudioURL) == "" {
		return out, missingAudioURL("murf_audio_url")
	}
	return out, nil
}

type historyResponse struct {
	History []historyEntry `json:"history"`
}

type historyEntry struct {
	Role  string            `json:"role"`
	Parts []json.RawMessage `json:"parts"`
}

// History fetches the stored conversation for sessionID in backend order.
func (c *Client) History(ctx context.Context, sessionID string) ([]domain.HistoryEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(nil, "history", sessionID), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build history request")
	}

	var out historyResponse
	if err := c.do(ctx, "history", req, &out); err != nil {
		return nil, err
	}

	return lo.Map(out.History, func(item historyEntry, _ int) domain.HistoryEntry {
		return domain.HistoryEntry{
			Role:  item.Role,
			Parts: lo.Map(item.Parts, func(part json.RawMessage, _ int) string { return partText(part) }),
		}
	}), nil
}

// partText reads a history part stored either as a bare string or as an
// object with a text field.
func partText(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Text
	}
	return ""
}

func (c *Client) endpoint(query url.Values, segments ...string) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = strings.TrimRight(c.base.EscapedPath(), "/")
	for _, segment := range segments {
		u.Path += "/" + segment
		u.RawPath += "/" + url.PathEscape(segment)
	}
	u.RawQuery = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) uploadRequest(ctx context.Context, target string, upload ports.AudioUpload) (*http.Request, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, upload.Filename))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, errors.Wrap(err, "create multipart file part")
	}
	if _, err := part.Write(upload.Data); err != nil {
		return nil, errors.Wrap(err, "write multipart file part")
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "close multipart body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, &body)
	if err != nil {
		return nil, errors.Wrap(err, "build upload request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req, nil
}

func (c *Client) do(ctx context.Context, op string, req *http.Request, out any) error {
	ctx, span := c.tracer.Start(ctx, "voiceapi."+op, trace.WithAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("http.url", req.URL.String()),
	))
	defer span.End()

	started := time.Now()
	outcome := "ok"
	defer func() {
		c.requests.Add(ctx, 1, metric.WithAttributes(
			attribute.String("endpoint", op),
			attribute.String("outcome", outcome),
		))
		log.Debug().
			Str("endpoint", op).
			Str("outcome", outcome).
			Dur("elapsed", time.Since(started)).
			Msg("backend request finished")
	}()

	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		outcome = "transport_error"
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		return &ports.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		outcome = "transport_error"
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		return &ports.TransportError{Op: op, Err: errors.Wrap(err, "read response body")}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = "application_error"
		apiErr := decodeAPIError(resp.StatusCode, body)
		span.RecordError(apiErr)
		span.SetStatus(codes.Error, apiErr.Error())
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		outcome = "decode_error"
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode response")
		return &ports.TransportError{Op: op, Err: errors.Wrap(err, "decode response")}
	}
	return nil
}
