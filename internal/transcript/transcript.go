// Package transcript handles raw visit text: splitting it into speaker
// turns, applying the operator's speaker-name policy, and validating
// that a transcript is substantial enough to process.
package transcript

import (
	"regexp"
	"strings"

	"github.com/deeperscribe/deeperscribe/internal/errors"
)

// MinTranscriptChars is the minimum trimmed length a transcript must have
// before the processing pipeline will accept it.
const MinTranscriptChars = 100

// Visibility controls when a turn renders its speaker name.
type Visibility string

const (
	// VisibilityNone hides speaker names on every turn.
	VisibilityNone Visibility = "none"
	// VisibilityFirst shows a speaker's name only on their first turn.
	VisibilityFirst Visibility = "first"
	// VisibilityAlways shows the speaker name on every turn.
	VisibilityAlways Visibility = "always"
)

// Turn is one speaker's contiguous utterance.
type Turn struct {
	Speaker  string `json:"speaker"`
	Text     string `json:"text"`
	ShowName bool   `json:"showName"`
}

// ErrTooShort is returned by Validate for transcripts under the minimum
// length. Use errors.Is to detect it through wrapping.
var ErrTooShort = errors.NewStd("transcript too short")

var turnPattern = regexp.MustCompile(`^([^:]+):\s*(.*)$`)

// ParseTurns splits a formatted transcript into speaker turns. Each
// non-empty line is expected to carry a "Speaker: text" prefix; lines
// without one are attributed to "Narrator". Speaker labels containing
// "doctor" or "dr." map to the configured doctor name, labels containing
// "patient" map to "Patient", and ShowName is computed per the visibility
// policy.
func ParseTurns(text, doctorName string, visibility Visibility) []Turn {
	var turns []Turn
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := turnPattern.FindStringSubmatch(line); m != nil {
			turns = append(turns, Turn{Speaker: m[1], Text: m[2]})
		} else {
			turns = append(turns, Turn{Speaker: "Narrator", Text: line})
		}
	}

	seen := make(map[string]bool)
	for i := range turns {
		display := mapSpeaker(turns[i].Speaker, doctorName)
		switch visibility {
		case VisibilityAlways:
			turns[i].ShowName = true
		case VisibilityFirst:
			turns[i].ShowName = !seen[display]
		default:
			turns[i].ShowName = false
		}
		seen[display] = true
		turns[i].Speaker = display
	}
	return turns
}

func mapSpeaker(name, doctorName string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "doctor") || strings.Contains(lower, "dr."):
		if doctorName == "" {
			return name
		}
		if strings.HasPrefix(doctorName, "Dr.") {
			return doctorName
		}
		return "Dr. " + doctorName
	case strings.Contains(lower, "patient"):
		return "Patient"
	default:
		return name
	}
}

// Validate checks that a raw transcript meets the minimum length for
// processing. The returned error carries a validation category so callers
// can distinguish it from transport failures.
func Validate(text string) error {
	if len(strings.TrimSpace(text)) < MinTranscriptChars {
		return errors.New(ErrTooShort).
			Category(errors.CategoryValidation).
			Context("length", len(strings.TrimSpace(text))).
			Context("minimum", MinTranscriptChars).
			Build()
	}
	return nil
}
