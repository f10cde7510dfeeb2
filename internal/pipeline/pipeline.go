// Package pipeline orchestrates the processing chain for one raw
// transcript: format, extract profile, generate key moments, each stage
// feeding the session state store. Stages are strictly sequential per
// transcript; different patients run concurrently. Trial fetching is a
// separate, explicitly triggered operation.
package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/deeperscribe/deeperscribe/internal/errors"
	"github.com/deeperscribe/deeperscribe/internal/logging"
	"github.com/deeperscribe/deeperscribe/internal/profile"
	"github.com/deeperscribe/deeperscribe/internal/scribe"
	"github.com/deeperscribe/deeperscribe/internal/session"
	"github.com/deeperscribe/deeperscribe/internal/store"
	"github.com/deeperscribe/deeperscribe/internal/transcript"
	"github.com/deeperscribe/deeperscribe/internal/trials"
)

var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "pipeline.log")
	serviceLevelVar.Set(slog.LevelDebug)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "pipeline", serviceLevelVar)
	if err != nil {
		log.Printf("FATAL: Failed to initialize pipeline file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "pipeline")
		closeLogger = func() error { return nil }
	}
}

// Stage is the currently active pipeline stage, for observers driving
// busy indicators.
type Stage string

const (
	StageIdle              Stage = "idle"
	StageTranscribing      Stage = "transcribing"
	StageFormatting        Stage = "formatting"
	StageExtracting        Stage = "extracting"
	StageGeneratingMoments Stage = "generating-moments"
)

// ScribeService is the slice of the scribe client the orchestrator needs.
type ScribeService interface {
	FormatTurns(ctx context.Context, transcript string) (*scribe.FormatResult, error)
	ExtractProfile(ctx context.Context, transcript string) (*profile.PatientProfile, float64, error)
	KeyMoments(ctx context.Context, transcript string, durationSec float64) ([]session.KeyMoment, error)
}

// TrialsService is the slice of the registry client the orchestrator
// needs.
type TrialsService interface {
	Search(ctx context.Context, p *profile.PatientProfile, nctIDs []string, maxResults int) (*trials.Response, error)
}

// Status is a patient's observable pipeline state.
type Status struct {
	Stage            Stage
	CurrentSessionID string
	LastError        string
}

// patientState is the orchestrator's in-memory slice for one patient.
type patientState struct {
	stage      Stage
	sessionID  string
	generation uint64
	lastError  string
	profile    *profile.PatientProfile
	confidence float64
}

// Orchestrator runs the processing chain and owns the per-patient
// pipeline state. Safe for concurrent use.
type Orchestrator struct {
	store  store.Interface
	scribe ScribeService
	trials TrialsService
	group  singleflight.Group

	mu     sync.Mutex
	states map[string]*patientState
}

// New creates an orchestrator over the given store and service clients.
func New(st store.Interface, sc ScribeService, tr TrialsService) *Orchestrator {
	return &Orchestrator{
		store:  st,
		scribe: sc,
		trials: tr,
		states: make(map[string]*patientState),
	}
}

func (o *Orchestrator) state(patientID string) *patientState {
	o.mu.Lock()
	defer o.mu.Unlock()
	ps, ok := o.states[patientID]
	if !ok {
		ps = &patientState{stage: StageIdle}
		o.states[patientID] = ps
	}
	return ps
}

// Status reports the patient's current stage, session and latest error.
func (o *Orchestrator) Status(patientID string) Status {
	ps := o.state(patientID)
	o.mu.Lock()
	defer o.mu.Unlock()
	return Status{Stage: ps.stage, CurrentSessionID: ps.sessionID, LastError: ps.lastError}
}

// Profile returns the last extracted profile and confidence for a
// patient, nil when no extraction has completed.
func (o *Orchestrator) Profile(patientID string) (*profile.PatientProfile, float64) {
	ps := o.state(patientID)
	o.mu.Lock()
	defer o.mu.Unlock()
	return ps.profile, ps.confidence
}

// Process runs the full chain on a new raw transcript. Transcripts under
// the minimum length are rejected before any network call. Concurrent
// invocations for the same patient coalesce onto one in-flight run.
//
// Stage failures do not roll back earlier outputs: a quota failure during
// formatting degrades to the raw transcript, a key moment failure leaves
// a placeholder moment, and any other failure aborts the remaining
// stages and is recorded as the latest error.
func (o *Orchestrator) Process(ctx context.Context, patientID, rawTranscript string, durationSec float64) error {
	if err := transcript.Validate(rawTranscript); err != nil {
		o.setError(patientID, err)
		return err
	}

	_, err, _ := o.group.Do(patientID+":process", func() (any, error) {
		return nil, o.process(ctx, patientID, rawTranscript, durationSec)
	})
	return err
}

func (o *Orchestrator) process(ctx context.Context, patientID, rawTranscript string, durationSec float64) error {
	ps := o.state(patientID)

	o.mu.Lock()
	gen := ps.generation
	sess := session.New(time.Now())
	ps.sessionID = sess.ID
	ps.lastError = ""
	o.mu.Unlock()

	if err := o.store.UpdateSessionFields(patientID, sess.ID, map[string]any{
		store.FieldTranscript: rawTranscript,
		store.FieldCreatedAt:  sess.CreatedAt,
	}); err != nil {
		o.setError(patientID, err)
		return err
	}

	// Stage 1: format. Quota exhaustion degrades to the raw transcript.
	o.setStage(patientID, StageFormatting)
	formatted := rawTranscript
	formatResult, err := o.scribe.FormatTurns(ctx, rawTranscript)
	switch {
	case err == nil:
		formatted = formatResult.Formatted
	case errors.IsQuota(err):
		logger.Warn("format quota exhausted, using raw transcript",
			"patient_id", patientID)
	default:
		o.finishWithError(patientID, err)
		return err
	}
	if !o.commit(patientID, gen, sess.ID, map[string]any{
		store.FieldFormattedTranscript: formatted,
	}) {
		return nil
	}

	// Stage 2: extract, always from the raw transcript.
	o.setStage(patientID, StageExtracting)
	extracted, confidence, err := o.scribe.ExtractProfile(ctx, rawTranscript)
	if err != nil {
		o.finishWithError(patientID, err)
		return err
	}
	// Older service deployments omit the confidence value; score the
	// profile locally by its populated fields in that case.
	if confidence <= 0 {
		confidence = profile.Confidence(extracted)
	}
	profileJSON, err := json.Marshal(extracted)
	if err != nil {
		o.finishWithError(patientID, err)
		return err
	}
	if o.stale(patientID, gen) {
		return nil
	}
	if err := o.store.UpdatePatientFields(patientID, map[string]any{
		store.FieldProfile:    string(profileJSON),
		store.FieldConfidence: confidence,
	}); err != nil {
		o.finishWithError(patientID, err)
		return err
	}
	o.mu.Lock()
	ps.profile = extracted
	ps.confidence = confidence
	o.mu.Unlock()

	// Stage 3: key moments, from the raw transcript. Outright failure
	// yields a placeholder rather than an indefinite loading state.
	o.setStage(patientID, StageGeneratingMoments)
	moments, err := o.scribe.KeyMoments(ctx, rawTranscript, durationSec)
	if err != nil {
		logger.Warn("key moment generation failed, storing placeholder",
			"patient_id", patientID, "error", err)
		moments = []session.KeyMoment{session.PlaceholderMoment()}
	}
	momentsJSON, err := json.Marshal(moments)
	if err != nil {
		o.finishWithError(patientID, err)
		return err
	}
	if !o.commit(patientID, gen, sess.ID, map[string]any{
		store.FieldKeyMoments: string(momentsJSON),
	}) {
		return nil
	}

	o.setStage(patientID, StageIdle)
	logger.Info("pipeline complete",
		"patient_id", patientID,
		"session_id", sess.ID,
		"moments", len(moments))
	return nil
}

// StartTranscribing marks the patient as transcribing. The transcribe
// call happens outside the orchestrator, in the recording flow; this
// keeps the stage visible to status observers while it runs.
func (o *Orchestrator) StartTranscribing(patientID string) {
	o.setStage(patientID, StageTranscribing)
}

// FinishTranscribing returns the patient to idle. A Process run started
// off the transcript owns the stage from then on, so the reset applies
// only while the patient is still transcribing.
func (o *Orchestrator) FinishTranscribing(patientID string) {
	ps := o.state(patientID)
	o.mu.Lock()
	if ps.stage == StageTranscribing {
		ps.stage = StageIdle
	}
	o.mu.Unlock()
}

// LoadSample resets the patient's session fields and reprocesses a
// built-in sample. Loading twice leaves no residue from the first load.
func (o *Orchestrator) LoadSample(ctx context.Context, patientID, sampleKey string) error {
	sample, _ := transcript.SampleByKey(sampleKey)
	if err := o.Reset(ctx, patientID); err != nil {
		return err
	}
	return o.Process(ctx, patientID, sample.Transcript, 0)
}

// Reset clears local and stored transcript fields and bumps the
// generation counter so responses still in flight from before the reset
// are discarded instead of repopulating cleared fields.
func (o *Orchestrator) Reset(ctx context.Context, patientID string) error {
	ps := o.state(patientID)

	o.mu.Lock()
	ps.generation++
	sessionID := ps.sessionID
	ps.sessionID = ""
	ps.stage = StageIdle
	ps.lastError = ""
	ps.profile = nil
	ps.confidence = 0
	o.mu.Unlock()

	if err := o.store.UpdatePatientFields(patientID, map[string]any{
		store.FieldTranscript:          "",
		store.FieldFormattedTranscript: "",
		store.FieldKeyMoments:          "",
	}); err != nil {
		return err
	}
	if sessionID != "" {
		return o.store.UpdateSessionFields(patientID, sessionID, map[string]any{
			store.FieldTranscript:          "",
			store.FieldFormattedTranscript: "",
			store.FieldKeyMoments:          "",
		})
	}
	return nil
}

// FetchTrials queries the registry with the patient's extracted profile
// and writes the result into the current session, creating one when none
// exists. It is never triggered automatically.
func (o *Orchestrator) FetchTrials(ctx context.Context, patientID string, nctIDs []string, maxResults int) (*trials.Response, error) {
	p, _ := o.Profile(patientID)
	if p == nil {
		stored, err := o.storedProfile(patientID)
		if err != nil {
			return nil, err
		}
		p = stored
	}
	if p == nil {
		return nil, errors.Newf("no extracted profile for patient %s", patientID).
			Category(errors.CategoryValidation).
			Context("patient_id", patientID).
			Build()
	}

	result, err, _ := o.group.Do(patientID+":trials", func() (any, error) {
		return o.trials.Search(ctx, p, nctIDs, maxResults)
	})
	if err != nil {
		o.setError(patientID, err)
		return nil, err
	}
	resp := result.(*trials.Response)

	ps := o.state(patientID)
	o.mu.Lock()
	sessionID := ps.sessionID
	if sessionID == "" {
		sessionID = session.NewID(time.Now())
		ps.sessionID = sessionID
	}
	o.mu.Unlock()

	trialsJSON, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	if err := o.store.UpdateSessionFields(patientID, sessionID, map[string]any{
		store.FieldTrials: string(trialsJSON),
	}); err != nil {
		return nil, err
	}
	logger.Info("trials stored",
		"patient_id", patientID,
		"session_id", sessionID,
		"count", len(resp.Trials))
	return resp, nil
}

func (o *Orchestrator) storedProfile(patientID string) (*profile.PatientProfile, error) {
	record, err := o.store.GetPatientRecord(patientID)
	if err != nil || record == nil {
		return nil, err
	}
	return record.Profile()
}

// commit writes session fields unless the generation moved on since the
// run started. Returns false when the write was discarded as stale.
func (o *Orchestrator) commit(patientID string, gen uint64, sessionID string, fields map[string]any) bool {
	if o.stale(patientID, gen) {
		logger.Debug("discarding stale stage result",
			"patient_id", patientID, "session_id", sessionID)
		return false
	}
	if err := o.store.UpdateSessionFields(patientID, sessionID, fields); err != nil {
		o.finishWithError(patientID, err)
		return false
	}
	return true
}

func (o *Orchestrator) stale(patientID string, gen uint64) bool {
	ps := o.state(patientID)
	o.mu.Lock()
	defer o.mu.Unlock()
	return ps.generation != gen
}

func (o *Orchestrator) setStage(patientID string, stage Stage) {
	ps := o.state(patientID)
	o.mu.Lock()
	ps.stage = stage
	o.mu.Unlock()
}

func (o *Orchestrator) setError(patientID string, err error) {
	ps := o.state(patientID)
	o.mu.Lock()
	ps.lastError = err.Error()
	o.mu.Unlock()
}

func (o *Orchestrator) finishWithError(patientID string, err error) {
	ps := o.state(patientID)
	o.mu.Lock()
	ps.stage = StageIdle
	ps.lastError = err.Error()
	o.mu.Unlock()
}
