package profile

import "math"

// confidenceDenominator is the fixed divisor of the confidence score.
// Eight top-level fields can carry data, so a fully populated profile
// clamps at 1.
const confidenceDenominator = 7

// Confidence scores an extracted profile by counting its populated
// top-level fields over a fixed denominator of 7, rounded to two
// decimals and clamped to [0, 1]. A profile with three fields populated
// scores 0.43.
func Confidence(p *PatientProfile) float64 {
	if p == nil {
		return 0
	}

	populated := 0
	if p.Age != nil {
		populated++
	}
	if p.Sex != "" {
		populated++
	}
	if p.Diagnosis != "" {
		populated++
	}
	if len(p.Conditions) > 0 {
		populated++
	}
	if len(p.Symptoms) > 0 {
		populated++
	}
	if len(p.Medications) > 0 {
		populated++
	}
	if len(p.Allergies) > 0 {
		populated++
	}
	if p.HasLocation() {
		populated++
	}

	score := float64(populated) / confidenceDenominator
	score = math.Round(score*100) / 100
	return math.Min(math.Max(score, 0), 1)
}
