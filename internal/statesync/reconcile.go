// Package statesync keeps concurrently live views of one patient
// converged on the session state store. Reconciliation is a pure function
// of local and remote state; the synchronizer applies it on every store
// change notification for its patient.
package statesync

import (
	"slices"

	"github.com/deeperscribe/deeperscribe/internal/session"
)

// State is one view's local copy of a patient's current session.
type State struct {
	CurrentSessionID string
	// Pinned marks a session the user explicitly selected; reconciliation
	// never switches away from it.
	Pinned              bool
	Transcript          string
	FormattedTranscript string
	KeyMoments          []session.KeyMoment
}

// Snapshot is the store's slice for one patient.
type Snapshot struct {
	Sessions []session.Session
	// Legacy fields from the single-session era, present when the patient
	// has stored transcripts but no session wrapper.
	LegacyTranscript          string
	LegacyFormattedTranscript string
	LegacyKeyMoments          []session.KeyMoment
}

// Reconcile merges the store's snapshot into a local view and returns the
// new local state. materializeID names the session to create when only
// legacy unscoped fields exist; the second return value reports whether
// the caller must persist that materialized session.
//
// Session selection: a pinned id is kept; otherwise the most recently
// created stored session wins, with creation-time ties broken by the full
// session id so the outcome is deterministic; otherwise legacy fields are
// wrapped in a new session container.
func Reconcile(local State, remote Snapshot, materializeID string) (State, bool) {
	next := local

	switch {
	case local.Pinned && local.CurrentSessionID != "":
		// keep
	case len(remote.Sessions) > 0:
		next.CurrentSessionID = newestSession(remote.Sessions).ID
		next.Pinned = false
	case remote.LegacyTranscript != "" || remote.LegacyFormattedTranscript != "":
		next.CurrentSessionID = materializeID
		next.Transcript = adopt(next.Transcript, remote.LegacyTranscript)
		next.FormattedTranscript = adopt(next.FormattedTranscript, remote.LegacyFormattedTranscript)
		if remote.LegacyKeyMoments != nil && !slices.Equal(momentKeys(next.KeyMoments), momentKeys(remote.LegacyKeyMoments)) {
			next.KeyMoments = remote.LegacyKeyMoments
		}
		return next, true
	}

	if current := findSession(remote.Sessions, next.CurrentSessionID); current != nil {
		next.Transcript = adopt(next.Transcript, current.Transcript)
		next.FormattedTranscript = adopt(next.FormattedTranscript, current.FormattedTranscript)
		if current.KeyMoments != nil && !slices.Equal(momentKeys(next.KeyMoments), momentKeys(current.KeyMoments)) {
			next.KeyMoments = current.KeyMoments
		}
	}
	return next, false
}

func newestSession(sessions []session.Session) *session.Session {
	newest := &sessions[0]
	for i := 1; i < len(sessions); i++ {
		s := &sessions[i]
		if s.CreatedAt.After(newest.CreatedAt) ||
			(s.CreatedAt.Equal(newest.CreatedAt) && s.ID > newest.ID) {
			newest = s
		}
	}
	return newest
}

func findSession(sessions []session.Session, id string) *session.Session {
	if id == "" {
		return nil
	}
	for i := range sessions {
		if sessions[i].ID == id {
			return &sessions[i]
		}
	}
	return nil
}

// adopt keeps the local value only when the remote one is identical or
// absent.
func adopt(local, remote string) string {
	if remote != "" && remote != local {
		return remote
	}
	return local
}

// momentKeys flattens moments for comparison. Desc plus search text
// identifies a moment well enough to detect replacement.
func momentKeys(moments []session.KeyMoment) []string {
	keys := make([]string, 0, len(moments))
	for _, m := range moments {
		keys = append(keys, m.Desc+"\x00"+m.SearchText+"\x00"+m.Time)
	}
	return keys
}
