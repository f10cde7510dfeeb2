package trials

// FallbackResponse returns the canned dataset substituted when the
// registry is unreachable and the deployment opts into degraded results.
// A fresh copy is built per call so callers can mutate their response.
func FallbackResponse() *Response {
	trials := []Trial{
		{
			NCTID:               "NCT12345678",
			Title:               "Study of Treatment for Breast Cancer Patients",
			Status:              "Recruiting",
			Phase:               []string{"Phase II"},
			StudyType:           "Interventional",
			BriefSummary:        "A clinical trial investigating new treatment options for patients with breast cancer, focusing on improving quality of life and treatment outcomes.",
			DetailedDescription: "This Phase II study evaluates the safety and efficacy of experimental treatments in combination with standard care for patients diagnosed with breast cancer. The study aims to improve treatment outcomes while maintaining quality of life.",
			Conditions:          []string{"Breast Cancer"},
			Interventions:       []string{"Drug: Experimental Treatment", "Behavioral: Lifestyle Intervention"},
			EligibilityCriteria: "Inclusion: Adults 18+ with diagnosed breast cancer. Exclusion: Pregnant women, severe heart conditions.",
			MinimumAge:          "18 Years",
			MaximumAge:          "75 Years",
			Sex:                 "All",
			Locations: []TrialLocation{
				{
					Facility: "Memorial Cancer Center",
					City:     "Jacksonville",
					State:    "Florida",
					Country:  "United States",
					Status:   "Recruiting",
				},
			},
			ContactInfo: &ContactInfo{
				CentralContact: CentralContact{
					Name:  "Clinical Research Team",
					Phone: "(555) 123-4567",
					Email: "research@memorial.org",
				},
			},
			URLs: TrialURLs{ClinicalTrialsGov: "https://clinicaltrials.gov/study/NCT12345678"},
		},
		{
			NCTID:               "NCT87654321",
			Title:               "Hypertension Management in Cancer Patients",
			Status:              "Active, not recruiting",
			Phase:               []string{"Phase I"},
			StudyType:           "Interventional",
			BriefSummary:        "Research study examining blood pressure management strategies in cancer patients receiving treatment.",
			DetailedDescription: "This Phase I study investigates optimal blood pressure management approaches for cancer patients undergoing active treatment. The research focuses on balancing cardiovascular health with cancer treatment effectiveness.",
			Conditions:          []string{"Hypertension", "Cancer"},
			Interventions:       []string{"Drug: Blood Pressure Medication", "Behavioral: Diet Modification"},
			EligibilityCriteria: "Inclusion: Cancer patients with hypertension. Exclusion: Uncontrolled diabetes.",
			MinimumAge:          "21 Years",
			MaximumAge:          "80 Years",
			Sex:                 "All",
			Locations: []TrialLocation{
				{
					Facility: "University Medical Center",
					City:     "Miami",
					State:    "Florida",
					Country:  "United States",
					Status:   "Active",
				},
			},
			ContactInfo: &ContactInfo{
				CentralContact: CentralContact{
					Name:  "Dr. Smith's Research Team",
					Phone: "(555) 987-6543",
					Email: "trials@umc.edu",
				},
			},
			URLs: TrialURLs{ClinicalTrialsGov: "https://clinicaltrials.gov/study/NCT87654321"},
		},
	}

	return &Response{
		Trials:     trials,
		TotalCount: len(trials),
		SearchCriteria: SearchCriteria{
			Conditions: []string{"Breast Cancer", "Hypertension"},
			Location:   "Florida, United States",
			AgeRange:   "52 years",
			Sex:        "female",
		},
	}
}
