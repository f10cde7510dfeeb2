package scribe

import (
	"time"

	"github.com/deeperscribe/deeperscribe/internal/retry"
)

// Config holds scribe service client configuration.
type Config struct {
	BaseURL string        // Base URL of the scribe service endpoints
	APIKey  string        // Bearer token, empty for unauthenticated deployments
	Timeout time.Duration // Per-request timeout
	Retry   retry.Config  // Retry policy for the JSON calls
	Debug   bool
}

// DefaultConfig returns client defaults. BaseURL has no default; every
// deployment must name its service endpoint.
func DefaultConfig() Config {
	return Config{
		Timeout: 60 * time.Second,
		Retry:   retry.DefaultConfig(),
	}
}

// TranscribeResult is the speech-to-text output for one audio submission.
type TranscribeResult struct {
	Transcript  string  `json:"transcript"`
	Language    string  `json:"language,omitempty"`
	DurationSec float64 `json:"durationInSeconds,omitempty"`
}

// FormattedTurn is one labeled turn from the formatting service.
type FormattedTurn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// FormatResult is the formatting service output: explicit turns plus their
// joined "Speaker: text" rendering.
type FormatResult struct {
	Turns     []FormattedTurn `json:"turns"`
	Formatted string          `json:"formatted"`
}

// transcribeRequest is the wire shape for the transcription endpoint.
type transcribeRequest struct {
	AudioBase64 string `json:"audioBase64"`
	MimeType    string `json:"mimeType,omitempty"`
}

type formatRequest struct {
	Transcript string `json:"transcript"`
}

type extractRequest struct {
	Transcript string `json:"transcript"`
}

type keyMomentsRequest struct {
	Transcript  string  `json:"transcript"`
	DurationSec float64 `json:"durationSec,omitempty"`
}

// serviceError is the error envelope the services return on failure.
type serviceError struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
