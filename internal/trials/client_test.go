package trials

import (
	"context"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deeperscribe/deeperscribe/internal/profile"
)

const studiesURL = "https://clinicaltrials.gov/api/v2/studies"

func studyJSON(nctID, title string) string {
	return `{
		"protocolSection": {
			"identificationModule": {"nctId": "` + nctID + `", "briefTitle": "` + title + `"},
			"statusModule": {"overallStatus": "RECRUITING"},
			"designModule": {"studyType": "Interventional", "phases": ["PHASE2"]},
			"descriptionModule": {"briefSummary": "A study."},
			"conditionsModule": {"conditions": ["Breast Cancer"]},
			"armsInterventionsModule": {"interventions": [{"name": "Drug: X", "type": "DRUG"}]},
			"eligibilityModule": {"minimumAge": "18 Years", "sex": "ALL"},
			"contactsLocationsModule": {
				"locations": [{"facility": "Center", "city": "Denver", "state": "Colorado", "country": "United States"}],
				"centralContacts": [{"name": "Research Team", "email": "team@example.org"}]
			}
		}
	}`
}

func newMockedClient(tb testing.TB, config Config) (*Client, *httpmock.MockTransport) {
	tb.Helper()

	mock := httpmock.NewMockTransport()
	config.Transport = mock
	client := NewClient(config)
	tb.Cleanup(client.Close)
	return client, mock
}

func TestSearchTransformsStudies(t *testing.T) {
	t.Parallel()

	client, mock := newMockedClient(t, Config{})
	mock.RegisterResponder("GET", studiesURL,
		httpmock.NewStringResponder(200, `{
			"studies": [`+studyJSON("NCT12345678", "Breast Cancer Study")+`],
			"totalCount": 1
		}`))

	p := &profile.PatientProfile{Diagnosis: "breast cancer", Age: intPtr(52)}
	resp, err := client.Search(context.Background(), p, nil, 10)
	require.NoError(t, err)
	require.Len(t, resp.Trials, 1)

	trial := resp.Trials[0]
	assert.Equal(t, "NCT12345678", trial.NCTID)
	assert.Equal(t, "Breast Cancer Study", trial.Title)
	assert.Equal(t, []string{"PHASE2"}, trial.Phase)
	assert.Equal(t, []string{"Drug: X"}, trial.Interventions)
	require.Len(t, trial.Locations, 1)
	assert.Equal(t, "Colorado", trial.Locations[0].State)
	require.NotNil(t, trial.ContactInfo)
	assert.Equal(t, "Research Team", trial.ContactInfo.CentralContact.Name)
	assert.Equal(t, "https://clinicaltrials.gov/study/NCT12345678", trial.URLs.ClinicalTrialsGov)
	assert.Equal(t, 1, resp.TotalCount)
}

func TestSearchDropsMalformedIDs(t *testing.T) {
	t.Parallel()

	client, mock := newMockedClient(t, Config{})
	mock.RegisterResponder("GET", studiesURL,
		httpmock.NewStringResponder(200, `{
			"studies": [
				`+studyJSON("NCT123", "Bad ID Study")+`,
				`+studyJSON("NCT87654321", "Good Study")+`
			],
			"totalCount": 2
		}`))

	resp, err := client.Search(context.Background(), &profile.PatientProfile{Diagnosis: "cancer"}, nil, 10)
	require.NoError(t, err)
	require.Len(t, resp.Trials, 1)
	assert.Equal(t, "NCT87654321", resp.Trials[0].NCTID)
}

func TestSearchTruncatesToCap(t *testing.T) {
	t.Parallel()

	client, mock := newMockedClient(t, Config{})
	mock.RegisterResponder("GET", studiesURL,
		httpmock.NewStringResponder(200, `{
			"studies": [
				`+studyJSON("NCT00000001", "One")+`,
				`+studyJSON("NCT00000002", "Two")+`,
				`+studyJSON("NCT00000003", "Three")+`
			],
			"totalCount": 3
		}`))

	resp, err := client.Search(context.Background(), &profile.PatientProfile{Diagnosis: "cancer"}, nil, 2)
	require.NoError(t, err)
	assert.Len(t, resp.Trials, 2)
}

func TestSearchUpstreamError(t *testing.T) {
	t.Parallel()

	client, mock := newMockedClient(t, Config{})
	mock.RegisterResponder("GET", studiesURL,
		httpmock.NewStringResponder(400, `{"message": "query too complex"}`))

	_, err := client.Search(context.Background(), &profile.PatientProfile{Diagnosis: "cancer"}, nil, 10)
	require.Error(t, err)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, 400, upstream.StatusCode)
	assert.Contains(t, upstream.Body, "query too complex")
}

func TestSearchFallbackOnRegistryFailure(t *testing.T) {
	t.Parallel()

	client, mock := newMockedClient(t, Config{FallbackEnabled: true})
	mock.RegisterResponder("GET", studiesURL,
		httpmock.NewStringResponder(400, `{"message": "rejected"}`))

	resp, err := client.Search(context.Background(), &profile.PatientProfile{Diagnosis: "cancer"}, nil, 10)
	require.NoError(t, err)
	require.Len(t, resp.Trials, 2)
	assert.Equal(t, "NCT12345678", resp.Trials[0].NCTID)
}

func TestSearchCachesIdenticalQueries(t *testing.T) {
	t.Parallel()

	client, mock := newMockedClient(t, Config{CacheTTL: time.Minute})
	mock.RegisterResponder("GET", studiesURL,
		httpmock.NewStringResponder(200, `{
			"studies": [`+studyJSON("NCT12345678", "Study")+`],
			"totalCount": 1
		}`))

	p := &profile.PatientProfile{Diagnosis: "cancer"}
	_, err := client.Search(context.Background(), p, nil, 10)
	require.NoError(t, err)
	_, err = client.Search(context.Background(), p, nil, 10)
	require.NoError(t, err)

	assert.Equal(t, 1, mock.GetTotalCallCount())
}

func TestSearchResultsAreIsolatedFromCache(t *testing.T) {
	t.Parallel()

	client, mock := newMockedClient(t, Config{CacheTTL: time.Minute})
	mock.RegisterResponder("GET", studiesURL,
		httpmock.NewStringResponder(200, `{
			"studies": [`+studyJSON("NCT12345678", "Study")+`],
			"totalCount": 1
		}`))

	p := &profile.PatientProfile{Diagnosis: "cancer"}
	first, err := client.Search(context.Background(), p, nil, 10)
	require.NoError(t, err)
	require.Len(t, first.Trials, 1)

	// Mutating a returned result must not leak into later searches.
	first.Trials[0].Title = "mangled"
	first.Trials[0].Phase[0] = "PHASE9"
	first.Trials[0].Locations[0].City = "Nowhere"

	second, err := client.Search(context.Background(), p, nil, 10)
	require.NoError(t, err)
	require.Len(t, second.Trials, 1)
	assert.Equal(t, "Study", second.Trials[0].Title)
	assert.Equal(t, []string{"PHASE2"}, second.Trials[0].Phase)
	assert.Equal(t, "Denver", second.Trials[0].Locations[0].City)

	// Cache hits are isolated from each other as well.
	second.Trials[0].Conditions[0] = "mangled"
	third, err := client.Search(context.Background(), p, nil, 10)
	require.NoError(t, err)
	assert.Equal(t, "Breast Cancer", third.Trials[0].Conditions[0])
}
