package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/deeperscribe/deeperscribe/internal/errors"
	"github.com/deeperscribe/deeperscribe/internal/profile"
	"github.com/deeperscribe/deeperscribe/internal/session"
	"github.com/deeperscribe/deeperscribe/internal/store"
	"github.com/deeperscribe/deeperscribe/internal/transcript"
	"github.com/deeperscribe/deeperscribe/internal/trials"
)

// PatientSummary is one row of the patient list.
type PatientSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Appointment string `json:"appointment"`
	TrialSets   int    `json:"trialSets"`
	Stage       string `json:"stage"`
}

// ListPatients returns every patient with trial-set counts and the
// current pipeline stage.
func (c *Controller) ListPatients(ctx echo.Context) error {
	patients, err := c.Store.Patients()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list patients", http.StatusInternalServerError)
	}

	summaries := make([]PatientSummary, 0, len(patients))
	for _, p := range patients {
		sessions, err := c.Store.Sessions(p.ID)
		if err != nil {
			return c.HandleError(ctx, err, "Failed to read sessions", http.StatusInternalServerError)
		}
		summaries = append(summaries, PatientSummary{
			ID:          p.ID,
			Name:        p.Name,
			Appointment: p.Appointment,
			TrialSets:   len(trials.Sets(sessions)),
			Stage:       string(c.Pipeline.Status(p.ID).Stage),
		})
	}
	return ctx.JSON(http.StatusOK, summaries)
}

type createPatientRequest struct {
	Name        string `json:"name"`
	Appointment string `json:"appointment"`
}

// CreatePatient adds a patient with a generated id.
func (c *Controller) CreatePatient(ctx echo.Context) error {
	var req createPatientRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		err := errors.Newf("patient name is required").
			Category(errors.CategoryValidation).
			Build()
		return c.HandleError(ctx, err, "Patient name is required", http.StatusBadRequest)
	}

	existing, err := c.Store.Patients()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list patients", http.StatusInternalServerError)
	}
	patient := store.Patient{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Appointment: req.Appointment,
		SortOrder:   len(existing),
	}
	if err := c.Store.UpsertPatient(patient); err != nil {
		return c.HandleError(ctx, err, "Failed to create patient", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusCreated, patient)
}

// SessionSummary is one session in the patient state response.
type SessionSummary struct {
	ID        string `json:"id"`
	CreatedAt string `json:"createdAt"`
	HasTrials bool   `json:"hasTrials"`
}

// PatientState is the full per-patient view.
type PatientState struct {
	Patient             store.Patient           `json:"patient"`
	Stage               string                  `json:"stage"`
	LastError           string                  `json:"lastError,omitempty"`
	CurrentSessionID    string                  `json:"currentSessionId,omitempty"`
	Profile             *profile.PatientProfile `json:"profile,omitempty"`
	Confidence          float64                 `json:"confidence"`
	Transcript          string                  `json:"transcript,omitempty"`
	FormattedTranscript string                  `json:"formattedTranscript,omitempty"`
	Turns               []transcript.Turn       `json:"turns,omitempty"`
	KeyMoments          []session.KeyMoment     `json:"keyMoments,omitempty"`
	Sessions            []SessionSummary        `json:"sessions"`
}

// GetPatientState returns the patient, pipeline status, extracted
// profile, current session content with parsed turns, and the session
// list.
func (c *Controller) GetPatientState(ctx echo.Context) error {
	patientID := ctx.Param("id")
	patient, err := c.Store.GetPatient(patientID)
	if err != nil {
		if errors.IsNotFound(err) {
			return c.HandleError(ctx, err, "Patient not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to read patient", http.StatusInternalServerError)
	}

	status := c.Pipeline.Status(patientID)
	state := PatientState{
		Patient:          *patient,
		Stage:            string(status.Stage),
		LastError:        status.LastError,
		CurrentSessionID: status.CurrentSessionID,
		Sessions:         []SessionSummary{},
	}

	if p, confidence := c.Pipeline.Profile(patientID); p != nil {
		state.Profile = p
		state.Confidence = confidence
	} else if record, err := c.Store.GetPatientRecord(patientID); err == nil && record != nil {
		if stored, err := record.Profile(); err == nil && stored != nil {
			state.Profile = stored
			state.Confidence = record.Confidence
		}
	}

	sessions, err := c.Store.Sessions(patientID)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to read sessions", http.StatusInternalServerError)
	}
	for i := range sessions {
		state.Sessions = append(state.Sessions, SessionSummary{
			ID:        sessions[i].ID,
			CreatedAt: sessions[i].CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			HasTrials: len(sessions[i].Trials) > 0,
		})
	}

	if status.CurrentSessionID != "" {
		current, err := c.Store.GetSession(patientID, status.CurrentSessionID)
		if err == nil {
			state.Transcript = current.Transcript
			state.FormattedTranscript = current.FormattedTranscript
			state.KeyMoments = current.KeyMoments
			if current.FormattedTranscript != "" {
				state.Turns = c.parseTurns(current.FormattedTranscript)
			}
		}
	}
	return ctx.JSON(http.StatusOK, state)
}

// parseTurns applies the stored operator settings to the formatted
// transcript.
func (c *Controller) parseTurns(formatted string) []transcript.Turn {
	doctorName := c.Settings.Operator.DoctorName
	visibility := transcript.Visibility(c.Settings.Operator.NameVisibility)
	if settings, err := c.Store.GetSettings(); err == nil && settings != nil {
		if settings.DoctorName != "" {
			doctorName = settings.DoctorName
		}
		if settings.NameVisibility != "" {
			visibility = transcript.Visibility(settings.NameVisibility)
		}
	}
	return transcript.ParseTurns(formatted, doctorName, visibility)
}
