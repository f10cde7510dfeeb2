package session

import (
	"fmt"
	"math"
	"strings"
)

// KeyMoment is a clinically notable point in the conversation. Time is a
// human-readable "MM:SS" when known, empty otherwise. SearchText is the
// lowercase quote (or description when no quote exists) used to locate the
// moment in the transcript.
type KeyMoment struct {
	Desc       string `json:"desc"`
	Quote      string `json:"quote,omitempty"`
	Time       string `json:"time,omitempty"`
	SearchText string `json:"searchText"`
}

// FillSearchText populates SearchText from the quote, falling back to the
// description.
func (m *KeyMoment) FillSearchText() {
	if m.Quote != "" {
		m.SearchText = strings.ToLower(m.Quote)
	} else {
		m.SearchText = strings.ToLower(m.Desc)
	}
}

// ApproximateTimes fills in missing moment timestamps by locating each
// quote in the transcript and scaling its character offset to the audio
// duration. Explicit times are kept. Moments without a quote, or whose
// quote does not occur in the transcript, are left without a time.
func ApproximateTimes(moments []KeyMoment, transcript string, durationSec float64) {
	if durationSec <= 0 || len(transcript) == 0 {
		return
	}
	lower := strings.ToLower(transcript)
	total := float64(len(transcript))
	for i := range moments {
		m := &moments[i]
		if m.Time != "" || m.Quote == "" {
			continue
		}
		idx := strings.Index(lower, strings.ToLower(m.Quote))
		if idx < 0 {
			continue
		}
		ratio := math.Min(0.999, math.Max(0, float64(idx)/total))
		seconds := int(math.Floor(ratio * durationSec))
		m.Time = fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
	}
}

// PlaceholderMoment is recorded when key moment generation fails after the
// retry budget, so downstream consumers see that processing ran but could
// not complete.
func PlaceholderMoment() KeyMoment {
	m := KeyMoment{Desc: "Processing incomplete: key moments unavailable"}
	m.FillSearchText()
	return m
}
