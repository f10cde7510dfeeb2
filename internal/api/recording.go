package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deeperscribe/deeperscribe/internal/errors"
)

// RecordingState is the recording status response.
type RecordingState struct {
	State     string `json:"state"`
	Method    string `json:"method"`
	LastError string `json:"lastError,omitempty"`
}

func (c *Controller) recordingState() RecordingState {
	return RecordingState{
		State:     string(c.Recorder.State()),
		Method:    string(c.Recorder.Method()),
		LastError: c.Recorder.LastError(),
	}
}

// StartRecording begins audio capture on the first available path.
func (c *Controller) StartRecording(ctx echo.Context) error {
	if c.Recorder == nil {
		err := errors.Newf("recording is not configured").
			Category(errors.CategoryConfiguration).
			Build()
		return c.HandleError(ctx, err, "Recording is not configured", http.StatusNotImplemented)
	}
	if err := c.Recorder.Start(ctx.Request().Context()); err != nil {
		return c.HandleError(ctx, err, "No capture path available", http.StatusServiceUnavailable)
	}
	return ctx.JSON(http.StatusOK, c.recordingState())
}

type stopRecordingRequest struct {
	PatientID string `json:"patientId"`
}

// StopRecording finalizes the capture and, when a patient id is given,
// runs the pipeline on the resulting transcript.
func (c *Controller) StopRecording(ctx echo.Context) error {
	if c.Recorder == nil {
		err := errors.Newf("recording is not configured").
			Category(errors.CategoryConfiguration).
			Build()
		return c.HandleError(ctx, err, "Recording is not configured", http.StatusNotImplemented)
	}
	var req stopRecordingRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	// Stop transcribes the captured audio on the server path, so the
	// patient shows as transcribing for the duration of the call.
	if req.PatientID != "" {
		c.Pipeline.StartTranscribing(req.PatientID)
		defer c.Pipeline.FinishTranscribing(req.PatientID)
	}
	result, err := c.Recorder.Stop(ctx.Request().Context())
	if err != nil {
		return c.HandleError(ctx, err, "Recording failed", http.StatusBadGateway)
	}
	if req.PatientID != "" && result.Transcript != "" {
		if err := c.Pipeline.Process(ctx.Request().Context(), req.PatientID, result.Transcript, result.DurationSec); err != nil {
			if errors.IsCategory(err, errors.CategoryValidation) {
				return c.HandleError(ctx, err, "Recording too short to process", http.StatusBadRequest)
			}
			return c.HandleError(ctx, err, "Processing failed", http.StatusBadGateway)
		}
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"transcript":  result.Transcript,
		"durationSec": result.DurationSec,
		"method":      string(result.Method),
	})
}

// RecordingStatus reports the recording lifecycle state.
func (c *Controller) RecordingStatus(ctx echo.Context) error {
	if c.Recorder == nil {
		return ctx.JSON(http.StatusOK, RecordingState{State: "idle", Method: "none"})
	}
	return ctx.JSON(http.StatusOK, c.recordingState())
}
