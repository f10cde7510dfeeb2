// Package session defines the per-visit recording session: its sortable
// identifier, the transcripts and key moments it accumulates, and the
// timestamp approximation used when a moment has no explicit time.
package session

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const idSuffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Session is one visit's accumulated outputs. The ID is sortable by
// creation time at second granularity; the random suffix disambiguates
// sessions created within the same second.
type Session struct {
	ID                  string      `json:"id"`
	CreatedAt           time.Time   `json:"createdAt"`
	Transcript          string      `json:"transcript"`
	FormattedTranscript string      `json:"formattedTranscript"`
	KeyMoments          []KeyMoment `json:"keyMoments"`
	Trials              []byte      `json:"trials,omitempty"` // raw trials response JSON
}

// NewID returns a session id of the form YYYYMMDDHHMMSS-xxxx where the
// suffix is four random base36 characters. Lexicographic order of ids
// matches creation order down to the second.
func NewID(now time.Time) string {
	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = idSuffixAlphabet[rand.IntN(len(idSuffixAlphabet))]
	}
	return fmt.Sprintf("%s-%s", now.Format("20060102150405"), suffix)
}

// New creates an empty session stamped with the given time.
func New(now time.Time) *Session {
	return &Session{ID: NewID(now), CreatedAt: now, KeyMoments: []KeyMoment{}}
}
