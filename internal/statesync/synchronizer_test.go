package statesync

import (
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deeperscribe/deeperscribe/internal/errors"
	"github.com/deeperscribe/deeperscribe/internal/events"
	"github.com/deeperscribe/deeperscribe/internal/session"
	"github.com/deeperscribe/deeperscribe/internal/store"
)

// memoryStore is an in-memory store.Interface used to drive the
// synchronizer without a database.
type memoryStore struct {
	mu       sync.Mutex
	bus      *events.Bus
	records  map[string]*store.PatientRecord
	sessions map[string]map[string]*store.SessionRecord
	settings store.SettingsRecord
}

func newMemoryStore(bus *events.Bus) *memoryStore {
	return &memoryStore{
		bus:      bus,
		records:  make(map[string]*store.PatientRecord),
		sessions: make(map[string]map[string]*store.SessionRecord),
		settings: store.SettingsRecord{ID: 1, NameVisibility: "first"},
	}
}

func (m *memoryStore) Open() error  { return nil }
func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) Patients() ([]store.Patient, error) {
	return store.DefaultPatients, nil
}

func (m *memoryStore) GetPatient(id string) (*store.Patient, error) {
	for i := range store.DefaultPatients {
		if store.DefaultPatients[i].ID == id {
			return &store.DefaultPatients[i], nil
		}
	}
	return nil, errors.Newf("patient %s not found", id).Category(errors.CategoryNotFound).Build()
}

func (m *memoryStore) UpsertPatient(store.Patient) error { return nil }

func (m *memoryStore) UpdatePatientFields(patientID string, fields map[string]any) error {
	m.mu.Lock()
	record, ok := m.records[patientID]
	if !ok {
		record = &store.PatientRecord{PatientID: patientID}
		m.records[patientID] = record
	}
	names := make([]string, 0, len(fields))
	for key, value := range fields {
		names = append(names, key)
		switch key {
		case store.FieldTranscript:
			record.Transcript = value.(string)
		case store.FieldFormattedTranscript:
			record.FormattedTranscript = value.(string)
		case store.FieldProfile:
			record.ProfileJSON = value.(string)
		case store.FieldConfidence:
			record.Confidence = value.(float64)
		case store.FieldKeyMoments:
			record.KeyMomentsJSON = value.(string)
		}
	}
	m.mu.Unlock()
	m.notify(patientID, "", names)
	return nil
}

func (m *memoryStore) GetPatientRecord(patientID string) (*store.PatientRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[patientID]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (m *memoryStore) UpdateSessionFields(patientID, sessionID string, fields map[string]any) error {
	m.mu.Lock()
	byID, ok := m.sessions[patientID]
	if !ok {
		byID = make(map[string]*store.SessionRecord)
		m.sessions[patientID] = byID
	}
	record, ok := byID[sessionID]
	if !ok {
		record = &store.SessionRecord{
			PatientID: patientID,
			SessionID: sessionID,
			CreatedAt: time.Now(),
		}
		if at, ok := fields[store.FieldCreatedAt].(time.Time); ok {
			record.CreatedAt = at
		}
		byID[sessionID] = record
	}
	names := make([]string, 0, len(fields))
	for key, value := range fields {
		names = append(names, key)
		switch key {
		case store.FieldTranscript:
			record.Transcript = value.(string)
		case store.FieldFormattedTranscript:
			record.FormattedTranscript = value.(string)
		case store.FieldKeyMoments:
			record.KeyMomentsJSON = value.(string)
		case store.FieldTrials:
			record.TrialsJSON = value.(string)
		}
	}
	m.mu.Unlock()
	m.notify(patientID, sessionID, names)
	return nil
}

func (m *memoryStore) GetSession(patientID, sessionID string) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.sessions[patientID][sessionID]
	if !ok {
		return nil, errors.Newf("session %s not found", sessionID).Category(errors.CategoryNotFound).Build()
	}
	return record.Session()
}

func (m *memoryStore) Sessions(patientID string) ([]session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	records := make([]*store.SessionRecord, 0, len(m.sessions[patientID]))
	for _, record := range m.sessions[patientID] {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].SessionID < records[j].SessionID })

	sessions := make([]session.Session, 0, len(records))
	for _, record := range records {
		s, err := record.Session()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, nil
}

func (m *memoryStore) GetSettings() (*store.SettingsRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := m.settings
	return &copied, nil
}

func (m *memoryStore) SaveSettings(doctorName, nameVisibility string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings.DoctorName = doctorName
	m.settings.NameVisibility = nameVisibility
	return nil
}

func (m *memoryStore) notify(patientID, sessionID string, fields []string) {
	if m.bus != nil {
		m.bus.TryPublish(events.PatientEvent{
			PatientID: patientID,
			SessionID: sessionID,
			Fields:    fields,
			Timestamp: time.Now(),
		})
	}
}

var _ store.Interface = (*memoryStore)(nil)

func TestSynchronizerConvergesOnStoreChange(t *testing.T) {
	t.Parallel()

	bus := events.NewBus(nil)
	t.Cleanup(func() { _ = bus.Shutdown(time.Second) })
	st := newMemoryStore(bus)

	var mu sync.Mutex
	var observed []State
	sync1, err := NewSynchronizer("p001", st, bus, func(s State) {
		mu.Lock()
		observed = append(observed, s)
		mu.Unlock()
	})
	require.NoError(t, err)
	t.Cleanup(sync1.Close)

	require.NoError(t, st.UpdateSessionFields("p001", "20250314090000-aaaa", map[string]any{
		store.FieldTranscript: "session text",
	}))

	require.Eventually(t, func() bool {
		state := sync1.State()
		return state.CurrentSessionID == "20250314090000-aaaa" && state.Transcript == "session text"
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.NotEmpty(t, observed)
}

func TestSynchronizerIgnoresOtherPatients(t *testing.T) {
	t.Parallel()

	bus := events.NewBus(nil)
	t.Cleanup(func() { _ = bus.Shutdown(time.Second) })
	st := newMemoryStore(bus)

	sync1, err := NewSynchronizer("p001", st, bus, nil)
	require.NoError(t, err)
	t.Cleanup(sync1.Close)

	require.NoError(t, st.UpdateSessionFields("p002", "20250314090000-bbbb", map[string]any{
		store.FieldTranscript: "other patient",
	}))

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, sync1.State().CurrentSessionID)
}

func TestSynchronizerMaterializesLegacySession(t *testing.T) {
	t.Parallel()

	bus := events.NewBus(nil)
	t.Cleanup(func() { _ = bus.Shutdown(time.Second) })
	st := newMemoryStore(bus)

	sync1, err := NewSynchronizer("p001", st, bus, nil)
	require.NoError(t, err)
	t.Cleanup(sync1.Close)

	require.NoError(t, st.UpdatePatientFields("p001", map[string]any{
		store.FieldTranscript: "legacy only transcript",
	}))

	require.Eventually(t, func() bool {
		sessions, err := st.Sessions("p001")
		return err == nil && len(sessions) == 1 && sessions[0].Transcript == "legacy only transcript"
	}, time.Second, 10*time.Millisecond)

	state := sync1.State()
	assert.NotEmpty(t, state.CurrentSessionID)
	assert.Equal(t, "legacy only transcript", state.Transcript)
}

func TestSynchronizerMaterializesLegacyKeyMoments(t *testing.T) {
	t.Parallel()

	bus := events.NewBus(nil)
	t.Cleanup(func() { _ = bus.Shutdown(time.Second) })
	st := newMemoryStore(bus)

	sync1, err := NewSynchronizer("p001", st, bus, nil)
	require.NoError(t, err)
	t.Cleanup(sync1.Close)

	moments, err := json.Marshal([]session.KeyMoment{
		{Desc: "Chief complaint", SearchText: "chest pressure", Time: "00:42"},
	})
	require.NoError(t, err)
	require.NoError(t, st.UpdatePatientFields("p001", map[string]any{
		store.FieldTranscript: "legacy transcript with moments",
		store.FieldKeyMoments: string(moments),
	}))

	require.Eventually(t, func() bool {
		state := sync1.State()
		return state.CurrentSessionID != "" && len(state.KeyMoments) == 1
	}, time.Second, 10*time.Millisecond)

	state := sync1.State()
	assert.Equal(t, "Chief complaint", state.KeyMoments[0].Desc)
	assert.Equal(t, "00:42", state.KeyMoments[0].Time)

	// The materialized session carries the legacy moments too.
	sess, err := st.GetSession("p001", state.CurrentSessionID)
	require.NoError(t, err)
	require.Len(t, sess.KeyMoments, 1)
	assert.Equal(t, "chest pressure", sess.KeyMoments[0].SearchText)
}

func TestSynchronizerTwoViewsConverge(t *testing.T) {
	t.Parallel()

	bus := events.NewBus(nil)
	t.Cleanup(func() { _ = bus.Shutdown(time.Second) })
	st := newMemoryStore(bus)

	view1, err := NewSynchronizer("p001", st, bus, nil)
	require.NoError(t, err)
	t.Cleanup(view1.Close)
	view2, err := NewSynchronizer("p001", st, bus, nil)
	require.NoError(t, err)
	t.Cleanup(view2.Close)

	moments, err := json.Marshal([]session.KeyMoment{{Desc: "Plan", SearchText: "plan"}})
	require.NoError(t, err)
	require.NoError(t, st.UpdateSessionFields("p001", "20250314090000-aaaa", map[string]any{
		store.FieldFormattedTranscript: "Doctor: Hello.",
		store.FieldKeyMoments:          string(moments),
	}))

	require.Eventually(t, func() bool {
		s1, s2 := view1.State(), view2.State()
		return s1.FormattedTranscript == "Doctor: Hello." &&
			s2.FormattedTranscript == "Doctor: Hello." &&
			len(s1.KeyMoments) == 1 && len(s2.KeyMoments) == 1
	}, time.Second, 10*time.Millisecond)
}
