// Package store is the durable, process-wide record of patients and their
// transcription sessions: the single source of truth every other
// component reads from and writes through. Writes are whole-field
// replacements, last write wins, and each mutation publishes a change
// event for the synchronizer.
package store

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/deeperscribe/deeperscribe/internal/errors"
	"github.com/deeperscribe/deeperscribe/internal/events"
	"github.com/deeperscribe/deeperscribe/internal/logging"
	"github.com/deeperscribe/deeperscribe/internal/session"
)

// Interface is the mutation and read API of the session state store.
// Components hold this interface, never the implementation, so tests can
// substitute their own.
type Interface interface {
	Open() error
	Close() error

	Patients() ([]Patient, error)
	GetPatient(id string) (*Patient, error)
	UpsertPatient(p Patient) error

	UpdatePatientFields(patientID string, fields map[string]any) error
	GetPatientRecord(patientID string) (*PatientRecord, error)

	UpdateSessionFields(patientID, sessionID string, fields map[string]any) error
	GetSession(patientID, sessionID string) (*session.Session, error)
	Sessions(patientID string) ([]session.Session, error)

	GetSettings() (*SettingsRecord, error)
	SaveSettings(doctorName, nameVisibility string) error
}

// Patient field keys accepted by UpdatePatientFields.
const (
	FieldTranscript          = "transcript"
	FieldFormattedTranscript = "formattedTranscript"
	FieldProfile             = "profile"
	FieldConfidence          = "confidence"
	FieldKeyMoments          = "keyMoments"
	FieldTrials              = "trials"
	FieldCreatedAt           = "createdAt"
)

var patientColumns = map[string]string{
	FieldTranscript:          "transcript",
	FieldFormattedTranscript: "formatted_transcript",
	FieldProfile:             "profile_json",
	FieldConfidence:          "confidence",
	FieldKeyMoments:          "key_moments_json",
}

var sessionColumns = map[string]string{
	FieldTranscript:          "transcript",
	FieldFormattedTranscript: "formatted_transcript",
	FieldKeyMoments:          "key_moments_json",
	FieldTrials:              "trials_json",
	FieldCreatedAt:           "created_at",
}

// SQLiteStore is the gorm-backed implementation.
type SQLiteStore struct {
	path string
	db   *gorm.DB
	bus  *events.Bus
}

// New creates a store persisting to the SQLite file at path. Events for
// every mutation go out on bus; a nil bus disables notifications.
func New(path string, bus *events.Bus) *SQLiteStore {
	return &SQLiteStore{path: path, bus: bus}
}

// Open connects to the database, migrates the schema and installs the
// seed patient list when the table is empty.
func (s *SQLiteStore) Open() error {
	db, err := gorm.Open(sqlite.Open(s.path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return errors.Wrap(err).
			Category(errors.CategoryDatastore).
			Context("path", s.path).
			Build()
	}
	s.db = db

	if err := db.AutoMigrate(&Patient{}, &PatientRecord{}, &SessionRecord{}, &SettingsRecord{}); err != nil {
		return errors.Wrap(err).
			Category(errors.CategoryDatastore).
			Context("operation", "auto-migrate").
			Build()
	}

	var count int64
	if err := db.Model(&Patient{}).Count(&count).Error; err != nil {
		return wrapDB(err, "count patients")
	}
	if count == 0 {
		if err := db.Create(&DefaultPatients).Error; err != nil {
			return wrapDB(err, "seed patients")
		}
		logging.Info("seeded default patient list", "count", len(DefaultPatients))
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return wrapDB(err, "close")
	}
	return sqlDB.Close()
}

// Patients returns the patient list in schedule order.
func (s *SQLiteStore) Patients() ([]Patient, error) {
	var patients []Patient
	if err := s.db.Order("sort_order, id").Find(&patients).Error; err != nil {
		return nil, wrapDB(err, "list patients")
	}
	return patients, nil
}

// GetPatient reads one patient by id.
func (s *SQLiteStore) GetPatient(id string) (*Patient, error) {
	var p Patient
	err := s.db.First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Newf("patient %s not found", id).
			Category(errors.CategoryNotFound).
			Build()
	}
	if err != nil {
		return nil, wrapDB(err, "get patient")
	}
	return &p, nil
}

// UpsertPatient inserts or updates a patient. The id never changes.
func (s *SQLiteStore) UpsertPatient(p Patient) error {
	if p.ID == "" {
		return errors.Newf("patient id is required").
			Category(errors.CategoryValidation).
			Build()
	}
	if err := s.db.Save(&p).Error; err != nil {
		return wrapDB(err, "upsert patient")
	}
	s.notify(p.ID, "", []string{"patient"})
	return nil
}

// UpdatePatientFields replaces the named legacy fields of a patient.
// Unknown field keys are rejected before touching the database.
func (s *SQLiteStore) UpdatePatientFields(patientID string, fields map[string]any) error {
	updates, names, err := mapColumns(fields, patientColumns)
	if err != nil {
		return err
	}

	record := PatientRecord{PatientID: patientID}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.FirstOrCreate(&record, PatientRecord{PatientID: patientID}).Error; err != nil {
			return err
		}
		updates["updated_at"] = time.Now()
		return tx.Model(&PatientRecord{}).
			Where("patient_id = ?", patientID).
			Updates(updates).Error
	})
	if err != nil {
		return wrapDB(err, "update patient fields")
	}
	s.notify(patientID, "", names)
	return nil
}

// GetPatientRecord reads the legacy per-patient fields, nil when none
// were ever written.
func (s *SQLiteStore) GetPatientRecord(patientID string) (*PatientRecord, error) {
	var record PatientRecord
	err := s.db.First(&record, "patient_id = ?", patientID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapDB(err, "get patient record")
	}
	return &record, nil
}

// UpdateSessionFields replaces the named fields of a session, creating
// the row on first write. CreatedAt is set once and never mutated.
func (s *SQLiteStore) UpdateSessionFields(patientID, sessionID string, fields map[string]any) error {
	if sessionID == "" {
		return errors.Newf("session id is required").
			Category(errors.CategoryValidation).
			Build()
	}
	updates, names, err := mapColumns(fields, sessionColumns)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		record := SessionRecord{PatientID: patientID, SessionID: sessionID}
		var existing SessionRecord
		findErr := tx.First(&existing, "patient_id = ? AND session_id = ?", patientID, sessionID).Error
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			record.CreatedAt = time.Now()
			if at, ok := updates["created_at"].(time.Time); ok {
				record.CreatedAt = at
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		} else if findErr != nil {
			return findErr
		}
		delete(updates, "created_at")
		if len(updates) == 0 {
			return nil
		}
		updates["updated_at"] = time.Now()
		return tx.Model(&SessionRecord{}).
			Where("patient_id = ? AND session_id = ?", patientID, sessionID).
			Updates(updates).Error
	})
	if err != nil {
		return wrapDB(err, "update session fields")
	}
	s.notify(patientID, sessionID, names)
	return nil
}

// GetSession reads one session.
func (s *SQLiteStore) GetSession(patientID, sessionID string) (*session.Session, error) {
	var record SessionRecord
	err := s.db.First(&record, "patient_id = ? AND session_id = ?", patientID, sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Newf("session %s not found", sessionID).
			Category(errors.CategoryNotFound).
			Build()
	}
	if err != nil {
		return nil, wrapDB(err, "get session")
	}
	return record.Session()
}

// Sessions returns all sessions of a patient, oldest first.
func (s *SQLiteStore) Sessions(patientID string) ([]session.Session, error) {
	var records []SessionRecord
	if err := s.db.Order("created_at, session_id").
		Find(&records, "patient_id = ?", patientID).Error; err != nil {
		return nil, wrapDB(err, "list sessions")
	}
	sessions := make([]session.Session, 0, len(records))
	for i := range records {
		sess, err := records[i].Session()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, nil
}

// GetSettings reads the operator settings, creating defaults on first
// access.
func (s *SQLiteStore) GetSettings() (*SettingsRecord, error) {
	record := SettingsRecord{ID: 1, NameVisibility: "first"}
	if err := s.db.FirstOrCreate(&record, SettingsRecord{ID: 1}).Error; err != nil {
		return nil, wrapDB(err, "get settings")
	}
	return &record, nil
}

// SaveSettings replaces the operator settings.
func (s *SQLiteStore) SaveSettings(doctorName, nameVisibility string) error {
	record := SettingsRecord{
		ID:             1,
		DoctorName:     doctorName,
		NameVisibility: nameVisibility,
		UpdatedAt:      time.Now(),
	}
	if err := s.db.Save(&record).Error; err != nil {
		return wrapDB(err, "save settings")
	}
	return nil
}

// notify publishes a change event. Drops are acceptable; the synchronizer
// reconciles against the store on its next notification anyway.
func (s *SQLiteStore) notify(patientID, sessionID string, fields []string) {
	if s.bus == nil {
		return
	}
	s.bus.TryPublish(events.PatientEvent{
		PatientID: patientID,
		SessionID: sessionID,
		Fields:    fields,
		Timestamp: time.Now(),
	})
}

func mapColumns(fields map[string]any, allowed map[string]string) (map[string]any, []string, error) {
	if len(fields) == 0 {
		return nil, nil, errors.Newf("no fields to update").
			Category(errors.CategoryValidation).
			Build()
	}
	updates := make(map[string]any, len(fields))
	names := make([]string, 0, len(fields))
	for key, value := range fields {
		column, ok := allowed[key]
		if !ok {
			return nil, nil, errors.Newf("unknown field %q", key).
				Category(errors.CategoryValidation).
				Build()
		}
		updates[column] = value
		names = append(names, key)
	}
	return updates, names, nil
}

func wrapDB(err error, operation string) error {
	return errors.Wrap(fmt.Errorf("%s: %w", operation, err)).
		Category(errors.CategoryDatastore).
		Build()
}
