package session

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	id := NewID(now)

	require.Regexp(t, regexp.MustCompile(`^20250314092653-[0-9a-z]{4}$`), id)
}

func TestNewIDSortsByCreationTime(t *testing.T) {
	t.Parallel()

	earlier := NewID(time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC))
	later := NewID(time.Date(2025, 3, 14, 9, 26, 54, 0, time.UTC))
	assert.Less(t, earlier, later)
}

func TestApproximateTimes(t *testing.T) {
	t.Parallel()

	t.Run("midpoint quote in two minute recording", func(t *testing.T) {
		t.Parallel()
		transcript := strings.Repeat("a", 600) + "The Chest Pressure Started" + strings.Repeat("b", 1200-600-26)
		require.Len(t, transcript, 1200)

		moments := []KeyMoment{{Desc: "onset", Quote: "the chest pressure started"}}
		ApproximateTimes(moments, transcript, 120)
		assert.Equal(t, "01:00", moments[0].Time)
	})

	t.Run("explicit time kept", func(t *testing.T) {
		t.Parallel()
		moments := []KeyMoment{{Desc: "x", Quote: "hello", Time: "00:42"}}
		ApproximateTimes(moments, "hello world", 100)
		assert.Equal(t, "00:42", moments[0].Time)
	})

	t.Run("quote not present leaves time empty", func(t *testing.T) {
		t.Parallel()
		moments := []KeyMoment{{Desc: "x", Quote: "absent"}}
		ApproximateTimes(moments, "some transcript text", 60)
		assert.Empty(t, moments[0].Time)
	})

	t.Run("no quote leaves time empty", func(t *testing.T) {
		t.Parallel()
		moments := []KeyMoment{{Desc: "x"}}
		ApproximateTimes(moments, "some transcript text", 60)
		assert.Empty(t, moments[0].Time)
	})

	t.Run("quote at end clamps below duration", func(t *testing.T) {
		t.Parallel()
		transcript := strings.Repeat("a", 1000) + "zz"
		moments := []KeyMoment{{Desc: "x", Quote: "zz"}}
		ApproximateTimes(moments, transcript, 60)
		// Offset ratio is clamped so the time never reaches the full duration.
		assert.NotEqual(t, "01:00", moments[0].Time)
	})

	t.Run("zero duration is a no-op", func(t *testing.T) {
		t.Parallel()
		moments := []KeyMoment{{Desc: "x", Quote: "hello"}}
		ApproximateTimes(moments, "hello", 0)
		assert.Empty(t, moments[0].Time)
	})
}

func TestFillSearchText(t *testing.T) {
	t.Parallel()

	withQuote := KeyMoment{Desc: "Diagnosis discussed", Quote: "Coronary Artery Disease"}
	withQuote.FillSearchText()
	assert.Equal(t, "coronary artery disease", withQuote.SearchText)

	withoutQuote := KeyMoment{Desc: "Follow-Up Scheduled"}
	withoutQuote.FillSearchText()
	assert.Equal(t, "follow-up scheduled", withoutQuote.SearchText)
}

func TestPlaceholderMoment(t *testing.T) {
	t.Parallel()

	m := PlaceholderMoment()
	assert.NotEmpty(t, m.Desc)
	assert.Equal(t, strings.ToLower(m.Desc), m.SearchText)
	assert.Empty(t, m.Time)
}
