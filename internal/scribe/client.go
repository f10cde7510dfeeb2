// Package scribe is the client for the four conversation-processing
// services: audio transcription, turn formatting, profile extraction and
// key moment generation. All calls share one pooled HTTP client and the
// bounded retry policy; quota exhaustion surfaces as a limit-category
// error so the pipeline can degrade instead of aborting.
package scribe

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/deeperscribe/deeperscribe/internal/errors"
	"github.com/deeperscribe/deeperscribe/internal/httpclient"
	"github.com/deeperscribe/deeperscribe/internal/logging"
	"github.com/deeperscribe/deeperscribe/internal/profile"
	"github.com/deeperscribe/deeperscribe/internal/retry"
	"github.com/deeperscribe/deeperscribe/internal/session"
)

// minServiceChars is the minimum transcript length the services accept.
// Enforced locally so undersized input never leaves the process.
const minServiceChars = 10

// quotaCode is the error code the services return when the upstream model
// quota is exhausted.
const quotaCode = "QUOTA_EXCEEDED"

var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "scribe.log")
	serviceLevelVar.Set(slog.LevelDebug)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "scribe", serviceLevelVar)
	if err != nil {
		log.Printf("FATAL: Failed to initialize scribe file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "scribe")
		closeLogger = func() error { return nil }
	}
}

// Client calls the scribe services. Safe for concurrent use.
type Client struct {
	config Config
	http   *httpclient.Client
}

// NewClient creates a scribe service client.
func NewClient(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, errors.Newf("scribe service base URL is required").
			Category(errors.CategoryConfiguration).
			Build()
	}
	defaults := DefaultConfig()
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.Retry.MaxAttempts == 0 {
		config.Retry = defaults.Retry
	}

	hc := httpclient.New(&httpclient.Config{DefaultTimeout: config.Timeout})
	if config.APIKey != "" {
		key := config.APIKey
		hc.SetBeforeRequestHook(func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+key)
		})
	}
	return &Client{config: config, http: hc}, nil
}

// Close releases the client's idle connections.
func (c *Client) Close() {
	c.http.Close()
}

// Transcribe submits captured audio and returns the raw transcript.
// Audio is sent whole; the services do not support streaming.
func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string) (*TranscribeResult, error) {
	if len(audio) == 0 {
		return nil, errors.Newf("no audio data to transcribe").
			Category(errors.CategoryValidation).
			Build()
	}

	req := transcribeRequest{
		AudioBase64: base64.StdEncoding.EncodeToString(audio),
		MimeType:    mimeType,
	}
	var result TranscribeResult
	if err := c.post(ctx, "/api/transcribe", errors.CategoryTranscription, req, &result); err != nil {
		return nil, err
	}
	logger.Info("transcription complete",
		"bytes", len(audio),
		"transcript_chars", len(result.Transcript),
		"duration_sec", result.DurationSec)
	return &result, nil
}

// FormatTurns rewrites a raw transcript into labeled speaker turns.
func (c *Client) FormatTurns(ctx context.Context, transcript string) (*FormatResult, error) {
	if err := c.checkTranscript(transcript); err != nil {
		return nil, err
	}

	var result FormatResult
	if err := c.post(ctx, "/api/format-transcript", errors.CategoryFormatting, formatRequest{Transcript: transcript}, &result); err != nil {
		return nil, err
	}
	if result.Formatted == "" && len(result.Turns) > 0 {
		lines := make([]string, 0, len(result.Turns))
		for _, t := range result.Turns {
			lines = append(lines, fmt.Sprintf("%s: %s", t.Speaker, t.Text))
		}
		result.Formatted = strings.Join(lines, "\n")
	}
	logger.Debug("transcript formatted", "turns", len(result.Turns))
	return &result, nil
}

// ExtractProfile pulls the structured patient profile out of a raw
// transcript. The returned profile is normalized; confidence is the
// service-computed score in [0, 1].
func (c *Client) ExtractProfile(ctx context.Context, transcript string) (*profile.PatientProfile, float64, error) {
	if err := c.checkTranscript(transcript); err != nil {
		return nil, 0, err
	}

	var result struct {
		PatientProfile *profile.PatientProfile `json:"patientProfile"`
		Confidence     float64                 `json:"confidence"`
	}
	if err := c.post(ctx, "/api/extract", errors.CategoryExtraction, extractRequest{Transcript: transcript}, &result); err != nil {
		return nil, 0, err
	}
	if result.PatientProfile == nil {
		return nil, 0, errors.Newf("extraction response missing patient profile").
			Category(errors.CategoryExtraction).
			Build()
	}
	result.PatientProfile.Normalize()
	logger.Info("profile extracted",
		"diagnosis", result.PatientProfile.Diagnosis,
		"confidence", result.Confidence)
	return result.PatientProfile, result.Confidence, nil
}

// KeyMoments asks the service for the clinically notable moments of the
// conversation. A single-object response body is coerced to a one-element
// list; some model backends return the bare object when only one moment
// exists.
func (c *Client) KeyMoments(ctx context.Context, transcript string, durationSec float64) ([]session.KeyMoment, error) {
	if err := c.checkTranscript(transcript); err != nil {
		return nil, err
	}

	var raw struct {
		Moments json.RawMessage `json:"moments"`
	}
	if err := c.post(ctx, "/api/key-moments", errors.CategoryKeyMoments, keyMomentsRequest{Transcript: transcript, DurationSec: durationSec}, &raw); err != nil {
		return nil, err
	}

	moments, err := coerceMoments(raw.Moments)
	if err != nil {
		return nil, errors.Wrap(err).
			Category(errors.CategoryKeyMoments).
			Context("body_prefix", prefix(string(raw.Moments), 64)).
			Build()
	}
	for i := range moments {
		if moments[i].SearchText == "" {
			moments[i].FillSearchText()
		}
	}
	session.ApproximateTimes(moments, transcript, durationSec)
	logger.Debug("key moments generated", "count", len(moments))
	return moments, nil
}

// coerceMoments accepts either a JSON array of moments or a single moment
// object.
func coerceMoments(raw json.RawMessage) ([]session.KeyMoment, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return []session.KeyMoment{}, nil
	}

	var list []session.KeyMoment
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var single session.KeyMoment
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("moments payload is neither a list nor an object: %w", err)
	}
	return []session.KeyMoment{single}, nil
}

func (c *Client) checkTranscript(transcript string) error {
	if len(strings.TrimSpace(transcript)) < minServiceChars {
		return errors.Newf("transcript must be at least %d characters", minServiceChars).
			Category(errors.CategoryValidation).
			Context("length", len(strings.TrimSpace(transcript))).
			Build()
	}
	return nil
}

// post runs one JSON request/response exchange with the retry policy.
// category tags failures with the calling stage.
func (c *Client) post(ctx context.Context, path string, category errors.ErrorCategory, reqBody, out any) error {
	url := strings.TrimSuffix(c.config.BaseURL, "/") + path

	body, err := json.Marshal(reqBody)
	if err != nil {
		return errors.Wrap(err).Category(category).Build()
	}

	return retry.Do(ctx, c.config.Retry, func() error {
		resp, err := c.http.Post(ctx, url, "application/json", body)
		if err != nil {
			return errors.Wrap(err).
				Category(errors.CategoryNetwork).
				Context("url", url).
				Build()
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return errors.Wrap(err).
				Category(errors.CategoryNetwork).
				NetworkContext(url, resp.StatusCode).
				Build()
		}

		if resp.StatusCode != http.StatusOK {
			return c.statusError(url, path, category, resp.StatusCode, data)
		}

		if err := json.Unmarshal(data, out); err != nil {
			return errors.Wrap(err).
				Category(category).
				Context("url", url).
				Context("body_prefix", prefix(string(data), 128)).
				Build()
		}
		return nil
	})
}

// statusError maps a non-200 response to a categorized error. Quota
// exhaustion, whether signaled by status 429 or by the QUOTA_EXCEEDED
// code in the error envelope, becomes a limit-category error.
func (c *Client) statusError(url, path string, category errors.ErrorCategory, statusCode int, body []byte) error {
	var svcErr serviceError
	_ = json.Unmarshal(body, &svcErr)

	message := svcErr.Error
	if message == "" {
		message = fmt.Sprintf("service returned status %d", statusCode)
	}

	builder := errors.Newf("%s: %s", strings.TrimPrefix(path, "/api/"), message).
		NetworkContext(url, statusCode)

	switch {
	case statusCode == http.StatusTooManyRequests || svcErr.Code == quotaCode:
		builder = builder.Category(errors.CategoryLimit)
	case statusCode == http.StatusBadRequest || statusCode == http.StatusUnprocessableEntity:
		builder = builder.Category(errors.CategoryValidation)
	case statusCode >= 500:
		builder = builder.Category(errors.CategoryNetwork)
	default:
		builder = builder.Category(category)
	}

	logger.Warn("service call failed",
		"path", path,
		"status", statusCode,
		"code", svcErr.Code)
	return builder.Build()
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
