package trials

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deeperscribe/deeperscribe/internal/session"
)

func TestSetsNewestFirstExcludingTrialLess(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	sessions := []session.Session{
		{ID: "20250314090000-aaaa", CreatedAt: base, Trials: []byte(`{"trials":[]}`)},
		{ID: "20250314091000-bbbb", CreatedAt: base.Add(10 * time.Minute)},
		{ID: "20250314092000-cccc", CreatedAt: base.Add(20 * time.Minute), Trials: []byte(`{"trials":[]}`)},
		{ID: "20250314091500-dddd", CreatedAt: base.Add(15 * time.Minute), Trials: []byte(`{"trials":[]}`)},
	}

	sets := Sets(sessions)
	require.Len(t, sets, 3)
	assert.Equal(t, "20250314092000-cccc", sets[0].SessionID)
	assert.Equal(t, "20250314091500-dddd", sets[1].SessionID)
	assert.Equal(t, "20250314090000-aaaa", sets[2].SessionID)
}

func TestSetsTieBrokenBySessionID(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	sessions := []session.Session{
		{ID: "20250314090000-aaaa", CreatedAt: at, Trials: []byte(`{}`)},
		{ID: "20250314090000-zzzz", CreatedAt: at, Trials: []byte(`{}`)},
	}

	sets := Sets(sessions)
	require.Len(t, sets, 2)
	assert.Equal(t, "20250314090000-zzzz", sets[0].SessionID)
}

func TestSetsEmptyInput(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Sets(nil))
}
