package statesync

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/deeperscribe/deeperscribe/internal/errors"
	"github.com/deeperscribe/deeperscribe/internal/events"
	"github.com/deeperscribe/deeperscribe/internal/logging"
	"github.com/deeperscribe/deeperscribe/internal/session"
	"github.com/deeperscribe/deeperscribe/internal/store"
)

// Synchronizer keeps one view's state converged with the store for a
// single patient. It consumes the store's change events; every
// notification for its patient triggers a reconcile, so two views of the
// same patient converge without a manual refresh.
type Synchronizer struct {
	patientID string
	name      string
	store     store.Interface
	bus       *events.Bus

	mu    sync.Mutex
	state State

	// onChange fires after a reconcile that produced a different state.
	onChange func(State)
}

// NewSynchronizer creates a synchronizer for one patient and registers it
// on the bus. onChange may be nil.
func NewSynchronizer(patientID string, st store.Interface, bus *events.Bus, onChange func(State)) (*Synchronizer, error) {
	s := &Synchronizer{
		patientID: patientID,
		name:      fmt.Sprintf("statesync-%s-%d", patientID, time.Now().UnixNano()),
		store:     st,
		bus:       bus,
		onChange:  onChange,
	}
	if bus != nil {
		if err := bus.RegisterConsumer(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Name implements events.Consumer. One synchronizer per patient per view;
// the registration timestamp keeps concurrent views of one patient
// distinct.
func (s *Synchronizer) Name() string {
	return s.name
}

// ProcessEvent implements events.Consumer. Events for other patients are
// ignored.
func (s *Synchronizer) ProcessEvent(event events.PatientEvent) error {
	if event.PatientID != s.patientID {
		return nil
	}
	return s.Refresh()
}

// Refresh reads the store's slice for the patient and reconciles the
// local state against it.
func (s *Synchronizer) Refresh() error {
	snapshot, err := s.snapshot()
	if err != nil {
		return err
	}

	s.mu.Lock()
	prev := s.state
	next, materialize := Reconcile(prev, *snapshot, session.NewID(time.Now()))
	s.state = next
	s.mu.Unlock()

	if materialize {
		// Wrap the legacy fields in a real session so later writes are
		// session-scoped.
		fields := map[string]any{
			store.FieldTranscript:          next.Transcript,
			store.FieldFormattedTranscript: next.FormattedTranscript,
		}
		if len(next.KeyMoments) > 0 {
			if moments, err := json.Marshal(next.KeyMoments); err == nil {
				fields[store.FieldKeyMoments] = string(moments)
			}
		}
		if err := s.store.UpdateSessionFields(s.patientID, next.CurrentSessionID, fields); err != nil {
			return errors.Wrap(err).
				Category(errors.CategoryState).
				Context("patient_id", s.patientID).
				Build()
		}
		logging.Debug("materialized session for legacy fields",
			"patient_id", s.patientID,
			"session_id", next.CurrentSessionID)
	}

	if s.onChange != nil && !statesEqual(prev, next) {
		s.onChange(next)
	}
	return nil
}

// State returns a copy of the current local state.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Pin fixes the current session; reconciliation keeps it until Unpin.
func (s *Synchronizer) Pin(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CurrentSessionID = sessionID
	s.state.Pinned = true
}

// Unpin releases the pinned session; the next reconcile may switch to a
// newer one.
func (s *Synchronizer) Unpin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Pinned = false
}

// Close unregisters the synchronizer from the bus.
func (s *Synchronizer) Close() {
	if s.bus != nil {
		s.bus.UnregisterConsumer(s.Name())
	}
}

func (s *Synchronizer) snapshot() (*Snapshot, error) {
	sessions, err := s.store.Sessions(s.patientID)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Sessions: sessions}

	record, err := s.store.GetPatientRecord(s.patientID)
	if err != nil {
		return nil, err
	}
	if record != nil {
		snap.LegacyTranscript = record.Transcript
		snap.LegacyFormattedTranscript = record.FormattedTranscript
		if record.KeyMomentsJSON != "" {
			if err := json.Unmarshal([]byte(record.KeyMomentsJSON), &snap.LegacyKeyMoments); err != nil {
				// Unreadable legacy moments do not block reconciliation.
				logging.Warn("skipping undecodable legacy key moments",
					"patient_id", s.patientID,
					"error", err)
			}
		}
	}
	return snap, nil
}

func statesEqual(a, b State) bool {
	if a.CurrentSessionID != b.CurrentSessionID ||
		a.Transcript != b.Transcript ||
		a.FormattedTranscript != b.FormattedTranscript ||
		len(a.KeyMoments) != len(b.KeyMoments) {
		return false
	}
	for i := range a.KeyMoments {
		if a.KeyMoments[i] != b.KeyMoments[i] {
			return false
		}
	}
	return true
}
