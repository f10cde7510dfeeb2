package transcript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deeperscribe/deeperscribe/internal/errors"
)

func TestParseTurns(t *testing.T) {
	t.Parallel()

	input := "Doctor: Good morning.\nPatient: Good morning, doctor.\nDoctor: What brings you in?"

	t.Run("visibility first shows each speaker once", func(t *testing.T) {
		t.Parallel()
		turns := ParseTurns(input, "Chen", VisibilityFirst)
		require.Len(t, turns, 3)
		assert.Equal(t, "Dr. Chen", turns[0].Speaker)
		assert.True(t, turns[0].ShowName)
		assert.Equal(t, "Patient", turns[1].Speaker)
		assert.True(t, turns[1].ShowName)
		assert.Equal(t, "Dr. Chen", turns[2].Speaker)
		assert.False(t, turns[2].ShowName)
	})

	t.Run("visibility always", func(t *testing.T) {
		t.Parallel()
		turns := ParseTurns(input, "Chen", VisibilityAlways)
		for _, turn := range turns {
			assert.True(t, turn.ShowName)
		}
	})

	t.Run("visibility none", func(t *testing.T) {
		t.Parallel()
		turns := ParseTurns(input, "Chen", VisibilityNone)
		for _, turn := range turns {
			assert.False(t, turn.ShowName)
		}
	})

	t.Run("doctor name with existing prefix not doubled", func(t *testing.T) {
		t.Parallel()
		turns := ParseTurns("Doctor: Hello.", "Dr. Chen", VisibilityAlways)
		require.Len(t, turns, 1)
		assert.Equal(t, "Dr. Chen", turns[0].Speaker)
	})

	t.Run("unlabeled lines become narrator", func(t *testing.T) {
		t.Parallel()
		turns := ParseTurns("The patient enters the room.\nDoctor: Hello.", "Chen", VisibilityNone)
		require.Len(t, turns, 2)
		assert.Equal(t, "Narrator", turns[0].Speaker)
		assert.Equal(t, "The patient enters the room.", turns[0].Text)
	})

	t.Run("unknown speaker labels pass through", func(t *testing.T) {
		t.Parallel()
		turns := ParseTurns("Nurse: Blood pressure is 130 over 85.", "Chen", VisibilityNone)
		require.Len(t, turns, 1)
		assert.Equal(t, "Nurse", turns[0].Speaker)
	})

	t.Run("blank lines skipped", func(t *testing.T) {
		t.Parallel()
		turns := ParseTurns("Doctor: Hi.\n\n\nPatient: Hi.", "Chen", VisibilityNone)
		assert.Len(t, turns, 2)
	})
}

func TestParseTurnsExampleTranscript(t *testing.T) {
	t.Parallel()

	turns := ParseTurns(ExampleTranscript, "Williams", VisibilityFirst)
	require.NotEmpty(t, turns)

	speakers := make(map[string]bool)
	for _, turn := range turns {
		speakers[turn.Speaker] = true
	}
	assert.True(t, speakers["Dr. Williams"])
	assert.True(t, speakers["Patient"])
	assert.False(t, speakers["Narrator"])
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("short transcript rejected", func(t *testing.T) {
		t.Parallel()
		err := Validate("too short")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrTooShort))
		assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
	})

	t.Run("whitespace does not count", func(t *testing.T) {
		t.Parallel()
		err := Validate(strings.Repeat(" ", 200) + "hi")
		require.Error(t, err)
	})

	t.Run("long transcript accepted", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, Validate(strings.Repeat("a", MinTranscriptChars)))
	})
}

func TestSampleByKey(t *testing.T) {
	t.Parallel()

	s, ok := SampleByKey("copd")
	assert.True(t, ok)
	assert.Equal(t, "COPD Follow-up Visit", s.Title)
	assert.GreaterOrEqual(t, len(s.Transcript), MinTranscriptChars)

	fallback, ok := SampleByKey("unknown-condition")
	assert.False(t, ok)
	assert.Equal(t, Samples[0].Key, fallback.Key)
}
