package voiceapi

import (
	"bytes"
	"encoding/json"
	"strings"

	"vocaloop/internal/ports"
)

func missingAudioURL(field string) error {
	return &ports.MissingFieldError{Field: field, Message: "Audio URL not found in response."}
}

type errorPayload struct {
	Detail   json.RawMessage `json:"detail"`
	AudioURL *string         `json:"murf_audio_url"`
}

func decodeAPIError(status int, body []byte) *ports.APIError {
	apiErr := &ports.APIError{StatusCode: status}

	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return apiErr
	}
	if payload.AudioURL != nil {
		apiErr.AudioURL = strings.TrimSpace(*payload.AudioURL)
	}
	apiErr.Detail = detailText(payload.Detail)
	return apiErr
}

// detailText accepts FastAPI's plain string details as well as structured
// validation details.
func detailText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return ""
	}
	return compact.String()
}
