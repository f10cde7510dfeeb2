package store

import (
	"encoding/json"
	"time"

	"github.com/deeperscribe/deeperscribe/internal/errors"
	"github.com/deeperscribe/deeperscribe/internal/profile"
	"github.com/deeperscribe/deeperscribe/internal/session"
)

// Patient is one schedulable person. The id is immutable once created.
type Patient struct {
	ID          string `gorm:"primaryKey" json:"id"`
	Name        string `json:"name"`
	Appointment string `json:"appointment"`
	SortOrder   int    `gorm:"index" json:"-"`
}

// PatientRecord carries the per-patient fields from the single-session
// era. Newer code writes per-session records; these stay readable so
// existing data survives.
type PatientRecord struct {
	PatientID           string  `gorm:"primaryKey"`
	Transcript          string
	FormattedTranscript string
	ProfileJSON         string
	Confidence          float64
	KeyMomentsJSON      string
	UpdatedAt           time.Time
}

// SessionRecord is one stored transcription session.
type SessionRecord struct {
	PatientID           string `gorm:"primaryKey;index"`
	SessionID           string `gorm:"primaryKey"`
	CreatedAt           time.Time
	Transcript          string
	FormattedTranscript string
	KeyMomentsJSON      string
	TrialsJSON          string
	UpdatedAt           time.Time
}

// SettingsRecord is the global operator settings row. Exactly one row
// exists.
type SettingsRecord struct {
	ID             uint `gorm:"primaryKey"`
	DoctorName     string
	NameVisibility string
	UpdatedAt      time.Time
}

// DefaultPatients is the seed list installed on first open.
var DefaultPatients = []Patient{
	{ID: "p001", Name: "Maria Martinez", Appointment: "Today • 9:00 AM", SortOrder: 0},
	{ID: "p002", Name: "John Kim", Appointment: "Today • 9:30 AM", SortOrder: 1},
	{ID: "p003", Name: "Ava Patel", Appointment: "Today • 10:00 AM", SortOrder: 2},
	{ID: "p004", Name: "Liam Johnson", Appointment: "Today • 10:30 AM", SortOrder: 3},
}

// Session converts the stored record into the domain shape.
func (r *SessionRecord) Session() (*session.Session, error) {
	s := &session.Session{
		ID:                  r.SessionID,
		CreatedAt:           r.CreatedAt,
		Transcript:          r.Transcript,
		FormattedTranscript: r.FormattedTranscript,
		KeyMoments:          []session.KeyMoment{},
	}
	if r.KeyMomentsJSON != "" {
		if err := json.Unmarshal([]byte(r.KeyMomentsJSON), &s.KeyMoments); err != nil {
			return nil, errors.Wrap(err).
				Category(errors.CategoryDatastore).
				Context("session_id", r.SessionID).
				Build()
		}
	}
	if r.TrialsJSON != "" {
		s.Trials = []byte(r.TrialsJSON)
	}
	return s, nil
}

// Profile decodes the stored legacy profile, nil when absent.
func (r *PatientRecord) Profile() (*profile.PatientProfile, error) {
	if r.ProfileJSON == "" {
		return nil, nil
	}
	var p profile.PatientProfile
	if err := json.Unmarshal([]byte(r.ProfileJSON), &p); err != nil {
		return nil, errors.Wrap(err).
			Category(errors.CategoryDatastore).
			Context("patient_id", r.PatientID).
			Build()
	}
	return &p, nil
}
