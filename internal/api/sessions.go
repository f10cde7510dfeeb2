package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deeperscribe/deeperscribe/internal/errors"
	"github.com/deeperscribe/deeperscribe/internal/trials"
)

type submitTranscriptRequest struct {
	Transcript  string  `json:"transcript"`
	DurationSec float64 `json:"durationSec"`
}

// SubmitTranscript runs the processing pipeline on a pasted or captured
// raw transcript.
func (c *Controller) SubmitTranscript(ctx echo.Context) error {
	patientID := ctx.Param("id")
	var req submitTranscriptRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	if err := c.Pipeline.Process(ctx.Request().Context(), patientID, req.Transcript, req.DurationSec); err != nil {
		if errors.IsCategory(err, errors.CategoryValidation) {
			return c.HandleError(ctx, err, "Transcript too short", http.StatusBadRequest)
		}
		return c.HandleError(ctx, err, "Processing failed", http.StatusBadGateway)
	}
	return ctx.JSON(http.StatusOK, c.Pipeline.Status(patientID))
}

type loadSampleRequest struct {
	Sample string `json:"sample"`
}

// LoadSample resets the patient and processes a built-in sample
// transcript.
func (c *Controller) LoadSample(ctx echo.Context) error {
	patientID := ctx.Param("id")
	var req loadSampleRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	if err := c.Pipeline.LoadSample(ctx.Request().Context(), patientID, req.Sample); err != nil {
		return c.HandleError(ctx, err, "Sample processing failed", http.StatusBadGateway)
	}
	return ctx.JSON(http.StatusOK, c.Pipeline.Status(patientID))
}

// ResetPatient clears the patient's transcript state.
func (c *Controller) ResetPatient(ctx echo.Context) error {
	patientID := ctx.Param("id")
	if err := c.Pipeline.Reset(ctx.Request().Context(), patientID); err != nil {
		return c.HandleError(ctx, err, "Reset failed", http.StatusInternalServerError)
	}
	return ctx.NoContent(http.StatusNoContent)
}

type fetchTrialsRequest struct {
	NCTIDs     []string `json:"nctIds"`
	MaxResults int      `json:"maxResults"`
}

// FetchTrials queries the registry with the patient's extracted profile.
func (c *Controller) FetchTrials(ctx echo.Context) error {
	patientID := ctx.Param("id")
	var req fetchTrialsRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}
	maxResults := trials.ClampMaxResults(req.MaxResults)

	resp, err := c.Pipeline.FetchTrials(ctx.Request().Context(), patientID, req.NCTIDs, maxResults)
	if err != nil {
		if errors.IsCategory(err, errors.CategoryValidation) {
			return c.HandleError(ctx, err, "No extracted profile yet", http.StatusConflict)
		}
		return c.HandleError(ctx, err, "Trial search failed", http.StatusBadGateway)
	}
	return ctx.JSON(http.StatusOK, resp)
}

// GetTrialSets returns the patient's stored trial sets, newest first.
func (c *Controller) GetTrialSets(ctx echo.Context) error {
	patientID := ctx.Param("id")
	sessions, err := c.Store.Sessions(patientID)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to read sessions", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, trials.Sets(sessions))
}
