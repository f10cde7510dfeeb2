package trials

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/patrickmn/go-cache"

	"github.com/deeperscribe/deeperscribe/internal/errors"
	"github.com/deeperscribe/deeperscribe/internal/httpclient"
	"github.com/deeperscribe/deeperscribe/internal/logging"
	"github.com/deeperscribe/deeperscribe/internal/profile"
	"github.com/deeperscribe/deeperscribe/internal/retry"
)

var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "trials.log")
	serviceLevelVar.Set(slog.LevelDebug)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "trials", serviceLevelVar)
	if err != nil {
		log.Printf("FATAL: Failed to initialize trials file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "trials")
		closeLogger = func() error { return nil }
	}
}

// UpstreamError is a non-success registry response, carrying the body for
// diagnostics.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("registry returned status %d", e.StatusCode)
}

// Client queries the study registry. Identical queries within the cache
// TTL are served from memory. Safe for concurrent use.
type Client struct {
	config Config
	http   *httpclient.Client
	cache  *cache.Cache
	retry  retry.Config
}

// NewClient creates a registry client, filling config gaps with defaults.
func NewClient(config Config) *Client {
	defaults := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = defaults.CacheTTL
	}

	return &Client{
		config: config,
		http: httpclient.New(&httpclient.Config{
			DefaultTimeout: config.Timeout,
			Transport:      config.Transport,
		}),
		cache: cache.New(config.CacheTTL, config.CacheTTL*2),
		retry: retry.DefaultConfig(),
	}
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.Close()
}

// Search queries the registry for trials matching the profile. When the
// registry fails and the fallback dataset is enabled, the canned set is
// returned instead of an error; otherwise the failure surfaces as an
// UpstreamError or transport error. Results are truncated to maxResults
// and filtered to well-formed registry ids.
func (c *Client) Search(ctx context.Context, p *profile.PatientProfile, nctIDs []string, maxResults int) (*Response, error) {
	maxResults = ClampMaxResults(maxResults)
	query := BuildQuery(p, nctIDs, maxResults)
	requestURL := c.config.BaseURL + "/studies?" + query.Encode()

	if cached, found := c.cache.Get(requestURL); found {
		logger.Debug("registry cache hit", "url", requestURL)
		// Hand out a copy; a caller mutating its result must not poison
		// the cached entry.
		return cached.(*Response).Clone(), nil
	}

	apiResp, err := c.fetch(ctx, requestURL)
	if err != nil {
		if c.config.FallbackEnabled {
			logger.Warn("registry unavailable, substituting fallback dataset", "error", err)
			return FallbackResponse(), nil
		}
		return nil, err
	}

	resp := &Response{
		Trials:         transformStudies(apiResp.Studies, maxResults),
		TotalCount:     apiResp.TotalCount,
		SearchCriteria: criteria(p),
	}

	c.cache.Set(requestURL, resp.Clone(), cache.DefaultExpiration)
	logger.Info("registry search complete",
		"returned", len(resp.Trials),
		"total", resp.TotalCount)
	return resp, nil
}

func (c *Client) fetch(ctx context.Context, requestURL string) (*apiResponse, error) {
	var result *apiResponse

	err := retry.Do(ctx, c.retry, func() error {
		resp, err := c.http.Get(ctx, requestURL)
		if err != nil {
			return errors.Wrap(err).
				Category(errors.CategoryNetwork).
				Context("url", requestURL).
				Build()
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return errors.Wrap(err).
				Category(errors.CategoryNetwork).
				NetworkContext(requestURL, resp.StatusCode).
				Build()
		}

		if resp.StatusCode != http.StatusOK {
			upstream := &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
			return errors.Wrap(upstream).
				Category(errors.CategoryTrialsAPI).
				NetworkContext(requestURL, resp.StatusCode).
				Build()
		}

		var decoded apiResponse
		if err := json.Unmarshal(body, &decoded); err != nil {
			return errors.Wrap(err).
				Category(errors.CategoryTrialsAPI).
				Context("url", requestURL).
				Build()
		}
		result = &decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// transformStudies maps registry records into trial records, dropping any
// whose id fails the registry pattern and truncating to the cap.
func transformStudies(studies []apiStudy, maxResults int) []Trial {
	trials := make([]Trial, 0, min(len(studies), maxResults))
	for i := range studies {
		if len(trials) >= maxResults {
			break
		}
		trial := transformStudy(&studies[i])
		if !ValidNCTID(trial.NCTID) {
			logger.Debug("dropping record with malformed id", "nctId", trial.NCTID)
			continue
		}
		trials = append(trials, trial)
	}
	return trials
}

func transformStudy(study *apiStudy) Trial {
	p := &study.ProtocolSection

	title := p.IdentificationModule.OfficialTitle
	if title == "" {
		title = p.IdentificationModule.BriefTitle
	}
	status := p.StatusModule.OverallStatus
	if status == "" {
		status = "Unknown"
	}
	studyType := p.DesignModule.StudyType
	if studyType == "" {
		studyType = "Unknown"
	}

	interventions := make([]string, 0, len(p.ArmsInterventionsModule.Interventions))
	for _, iv := range p.ArmsInterventionsModule.Interventions {
		interventions = append(interventions, iv.Name)
	}

	locations := make([]TrialLocation, 0, len(p.ContactsLocationsModule.Locations))
	for _, loc := range p.ContactsLocationsModule.Locations {
		locations = append(locations, TrialLocation(loc))
	}

	var contact *ContactInfo
	if len(p.ContactsLocationsModule.CentralContacts) > 0 {
		first := p.ContactsLocationsModule.CentralContacts[0]
		contact = &ContactInfo{CentralContact: CentralContact(first)}
	}

	phases := p.DesignModule.Phases
	if phases == nil {
		phases = []string{}
	}
	conditions := p.ConditionsModule.Conditions
	if conditions == nil {
		conditions = []string{}
	}

	return Trial{
		NCTID:               p.IdentificationModule.NCTID,
		Title:               title,
		Status:              status,
		Phase:               phases,
		StudyType:           studyType,
		BriefSummary:        p.DescriptionModule.BriefSummary,
		DetailedDescription: p.DescriptionModule.DetailedDescription,
		Conditions:          conditions,
		Interventions:       interventions,
		EligibilityCriteria: p.EligibilityModule.EligibilityCriteria,
		MinimumAge:          p.EligibilityModule.MinimumAge,
		MaximumAge:          p.EligibilityModule.MaximumAge,
		Sex:                 p.EligibilityModule.Sex,
		Locations:           locations,
		ContactInfo:         contact,
		URLs: TrialURLs{
			ClinicalTrialsGov: "https://clinicaltrials.gov/study/" + p.IdentificationModule.NCTID,
		},
	}
}
