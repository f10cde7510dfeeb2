// Package trials provides a client for the ClinicalTrials.gov v2 study
// registry: query construction from a patient profile, response caching,
// field-by-field transformation into trial records, and the canned
// fallback dataset used when the registry is unreachable.
package trials

import (
	"net/http"
	"regexp"
	"slices"
	"time"
)

const (
	// DefaultBaseURL is the ClinicalTrials.gov v2 API endpoint.
	DefaultBaseURL = "https://clinicaltrials.gov/api/v2"

	// DefaultMaxResults is the result cap when the caller does not set one.
	DefaultMaxResults = 10

	// MaxResults is the hard ceiling on requested results.
	MaxResults = 50

	// DefaultPageSize is the fixed page size sent to the registry.
	DefaultPageSize = 20
)

// nctPattern is the registry id format. Records failing it are dropped
// during transformation and never surfaced.
var nctPattern = regexp.MustCompile(`^NCT\d{8}$`)

// ValidNCTID reports whether id is a well-formed registry identifier.
func ValidNCTID(id string) bool {
	return nctPattern.MatchString(id)
}

// Config holds registry client configuration.
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	CacheTTL        time.Duration
	FallbackEnabled bool // substitute the canned dataset on registry failure
	Debug           bool

	// Transport overrides the HTTP transport. Tests use it to install a
	// mock round tripper.
	Transport http.RoundTripper
}

// DefaultConfig returns registry client defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:  DefaultBaseURL,
		Timeout:  30 * time.Second,
		CacheTTL: 15 * time.Minute,
	}
}

// TrialLocation is one study site.
type TrialLocation struct {
	Facility string `json:"facility"`
	City     string `json:"city"`
	State    string `json:"state,omitempty"`
	Country  string `json:"country"`
	Status   string `json:"status,omitempty"`
}

// CentralContact is the study's central point of contact.
type CentralContact struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// ContactInfo wraps trial contact details.
type ContactInfo struct {
	CentralContact CentralContact `json:"centralContact"`
}

// TrialURLs carries canonical links for a trial.
type TrialURLs struct {
	ClinicalTrialsGov string `json:"clinicalTrialsGov"`
}

// Trial is one registry record mapped into the shape the rest of the
// system consumes. Optional nested registry fields default to empty
// strings and slices, never nulls.
type Trial struct {
	NCTID               string          `json:"nctId"`
	Title               string          `json:"title"`
	Status              string          `json:"status"`
	Phase               []string        `json:"phase"`
	StudyType           string          `json:"studyType"`
	BriefSummary        string          `json:"briefSummary"`
	DetailedDescription string          `json:"detailedDescription,omitempty"`
	Conditions          []string        `json:"conditions"`
	Interventions       []string        `json:"interventions"`
	EligibilityCriteria string          `json:"eligibilityCriteria,omitempty"`
	MinimumAge          string          `json:"minimumAge,omitempty"`
	MaximumAge          string          `json:"maximumAge,omitempty"`
	Sex                 string          `json:"sex,omitempty"`
	Locations           []TrialLocation `json:"locations"`
	ContactInfo         *ContactInfo    `json:"contactInfo,omitempty"`
	URLs                TrialURLs       `json:"urls"`
}

// Clone returns a deep copy of the trial. Slice and pointer fields get
// their own backing storage.
func (t Trial) Clone() Trial {
	out := t
	out.Phase = slices.Clone(t.Phase)
	out.Conditions = slices.Clone(t.Conditions)
	out.Interventions = slices.Clone(t.Interventions)
	out.Locations = slices.Clone(t.Locations)
	if t.ContactInfo != nil {
		contact := *t.ContactInfo
		out.ContactInfo = &contact
	}
	return out
}

// SearchCriteria echoes back what the query was built from, for display.
type SearchCriteria struct {
	Conditions []string `json:"conditions,omitempty"`
	Location   string   `json:"location,omitempty"`
	AgeRange   string   `json:"ageRange,omitempty"`
	Sex        string   `json:"sex,omitempty"`
}

// Response is one completed registry search.
type Response struct {
	Trials         []Trial        `json:"trials"`
	TotalCount     int            `json:"totalCount"`
	SearchCriteria SearchCriteria `json:"searchCriteria"`
}

// Clone returns a deep copy of the response. Callers may mutate the
// result without affecting other holders of the same search.
func (r *Response) Clone() *Response {
	out := *r
	out.SearchCriteria.Conditions = slices.Clone(r.SearchCriteria.Conditions)
	out.Trials = make([]Trial, len(r.Trials))
	for i := range r.Trials {
		out.Trials[i] = r.Trials[i].Clone()
	}
	return &out
}

// Registry wire shapes (v2 studies endpoint). Only the consumed subset.

type apiResponse struct {
	Studies    []apiStudy `json:"studies"`
	TotalCount int        `json:"totalCount"`
}

type apiStudy struct {
	ProtocolSection struct {
		IdentificationModule struct {
			NCTID         string `json:"nctId"`
			BriefTitle    string `json:"briefTitle"`
			OfficialTitle string `json:"officialTitle"`
		} `json:"identificationModule"`
		StatusModule struct {
			OverallStatus string `json:"overallStatus"`
		} `json:"statusModule"`
		DesignModule struct {
			StudyType string   `json:"studyType"`
			Phases    []string `json:"phases"`
		} `json:"designModule"`
		DescriptionModule struct {
			BriefSummary        string `json:"briefSummary"`
			DetailedDescription string `json:"detailedDescription"`
		} `json:"descriptionModule"`
		ConditionsModule struct {
			Conditions []string `json:"conditions"`
		} `json:"conditionsModule"`
		ArmsInterventionsModule struct {
			Interventions []struct {
				Name string `json:"name"`
				Type string `json:"type"`
			} `json:"interventions"`
		} `json:"armsInterventionsModule"`
		EligibilityModule struct {
			EligibilityCriteria string `json:"eligibilityCriteria"`
			MinimumAge          string `json:"minimumAge"`
			MaximumAge          string `json:"maximumAge"`
			Sex                 string `json:"sex"`
		} `json:"eligibilityModule"`
		ContactsLocationsModule struct {
			Locations []struct {
				Facility string `json:"facility"`
				City     string `json:"city"`
				State    string `json:"state"`
				Country  string `json:"country"`
				Status   string `json:"status"`
			} `json:"locations"`
			CentralContacts []struct {
				Name  string `json:"name"`
				Phone string `json:"phone"`
				Email string `json:"email"`
			} `json:"centralContacts"`
		} `json:"contactsLocationsModule"`
	} `json:"protocolSection"`
}
