// Package profile defines the structured patient profile extracted from a
// visit transcript, along with diagnosis normalization and the extraction
// confidence score.
package profile

// Sex is the patient's stated sex. Absence is represented by the empty string.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

// DefaultCountry is assumed when a location is stated without a country.
const DefaultCountry = "United States"

// Location is the patient's stated location.
type Location struct {
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

// PatientProfile is the structured clinical summary extracted from a
// transcript. Every field is optional; an absent field means "not stated",
// never a negative finding.
type PatientProfile struct {
	Age         *int      `json:"age,omitempty"` // 0-120 when present
	Sex         Sex       `json:"sex,omitempty"`
	Diagnosis   string    `json:"diagnosis,omitempty"`
	Conditions  []string  `json:"conditions"`
	Symptoms    []string  `json:"symptoms"`
	Medications []string  `json:"medications"`
	Allergies   []string  `json:"allergies"`
	Location    *Location `json:"location,omitempty"`
}

// HasLocation reports whether any location component is stated.
func (p *PatientProfile) HasLocation() bool {
	return p.Location != nil && (p.Location.City != "" || p.Location.State != "" || p.Location.Country != "")
}

// Normalize fills location defaults and clamps implausible ages. Returns the
// receiver for chaining.
func (p *PatientProfile) Normalize() *PatientProfile {
	if p.Location != nil && p.Location.Country == "" {
		p.Location.Country = DefaultCountry
	}
	if p.Age != nil && (*p.Age < 0 || *p.Age > 120) {
		p.Age = nil
	}
	if p.Conditions == nil {
		p.Conditions = []string{}
	}
	if p.Symptoms == nil {
		p.Symptoms = []string{}
	}
	if p.Medications == nil {
		p.Medications = []string{}
	}
	if p.Allergies == nil {
		p.Allergies = []string{}
	}
	return p
}
