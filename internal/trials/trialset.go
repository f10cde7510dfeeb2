package trials

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/deeperscribe/deeperscribe/internal/session"
)

// TrialSet is a read-only bundle of one session's retrieved trials.
type TrialSet struct {
	SessionID string          `json:"sessionId"`
	CreatedAt time.Time       `json:"createdAt"`
	Trials    json.RawMessage `json:"trials"`
}

// Sets derives the trial sets of a patient's sessions, newest first.
// Sessions without trials are excluded. Creation-time ties are broken by
// comparing full session ids, whose random suffix makes the order
// deterministic.
func Sets(sessions []session.Session) []TrialSet {
	sets := make([]TrialSet, 0, len(sessions))
	for _, s := range sessions {
		if len(s.Trials) == 0 {
			continue
		}
		sets = append(sets, TrialSet{
			SessionID: s.ID,
			CreatedAt: s.CreatedAt,
			Trials:    json.RawMessage(s.Trials),
		})
	}
	sort.Slice(sets, func(i, j int) bool {
		if !sets[i].CreatedAt.Equal(sets[j].CreatedAt) {
			return sets[i].CreatedAt.After(sets[j].CreatedAt)
		}
		return sets[i].SessionID > sets[j].SessionID
	})
	return sets
}
