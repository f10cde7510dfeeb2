package trials

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/deeperscribe/deeperscribe/internal/profile"
)

// adultAge is the threshold above which searches are constrained to
// actively recruiting studies.
const adultAge = 18

// BuildQuery converts a patient profile, an optional explicit registry id
// list, and a result cap into the bounded query the registry accepts.
// Complexity never exceeds one condition term, one secondary free-text
// term, one location term, one status filter and an optional id filter;
// the registry rejects more elaborate queries.
func BuildQuery(p *profile.PatientProfile, nctIDs []string, maxResults int) url.Values {
	params := url.Values{}

	primary, secondary := conditionTerms(p)
	if primary != "" {
		params.Set("query.cond", primary)
	}
	if secondary != "" {
		params.Set("query.term", secondary)
	}

	if loc := locationTerm(p); loc != "" {
		params.Set("query.locn", loc)
	}

	if p != nil && p.Age != nil && *p.Age >= adultAge {
		params.Set("filter.overallStatus", "RECRUITING")
	}

	// An explicit id filter narrows the results but does not replace the
	// condition and location terms; both apply.
	if ids := validIDs(nctIDs); len(ids) > 0 {
		params.Set("filter.ids", strings.Join(ids, ","))
	}

	pageSize := DefaultPageSize
	if maxResults > 0 && maxResults < pageSize {
		pageSize = maxResults
	}
	params.Set("format", "json")
	params.Set("countTotal", "true")
	params.Set("pageSize", strconv.Itoa(pageSize))

	return params
}

// conditionTerms selects exactly one primary condition term, normalized
// diagnosis first, and at most one secondary term from the remaining
// conditions.
func conditionTerms(p *profile.PatientProfile) (primary, secondary string) {
	if p == nil {
		return "", ""
	}

	rest := p.Conditions
	if p.Diagnosis != "" {
		primary = profile.SimplifyDiagnosis(p.Diagnosis)
	} else if len(rest) > 0 {
		primary = rest[0]
		rest = rest[1:]
	}

	for _, c := range rest {
		if c != "" && !strings.EqualFold(c, primary) {
			secondary = c
			break
		}
	}
	return primary, secondary
}

func locationTerm(p *profile.PatientProfile) string {
	if p == nil || p.Location == nil {
		return ""
	}
	switch {
	case p.Location.State != "":
		return p.Location.State + ", " + profile.DefaultCountry
	case p.Location.City != "":
		return p.Location.City + ", " + profile.DefaultCountry
	default:
		return ""
	}
}

func validIDs(ids []string) []string {
	var out []string
	for _, id := range ids {
		if ValidNCTID(id) {
			out = append(out, id)
		}
	}
	return out
}

// ClampMaxResults normalizes the caller's result cap to the allowed range,
// applying the default when unset.
func ClampMaxResults(n int) int {
	switch {
	case n <= 0:
		return DefaultMaxResults
	case n > MaxResults:
		return MaxResults
	default:
		return n
	}
}

// criteria summarizes the query inputs for display alongside results.
func criteria(p *profile.PatientProfile) SearchCriteria {
	var c SearchCriteria
	if p == nil {
		return c
	}
	if p.Diagnosis != "" {
		c.Conditions = append(c.Conditions, p.Diagnosis)
	}
	c.Conditions = append(c.Conditions, p.Conditions...)
	if p.Location != nil {
		parts := []string{}
		if p.Location.City != "" {
			parts = append(parts, p.Location.City)
		}
		if p.Location.State != "" {
			parts = append(parts, p.Location.State)
		}
		c.Location = strings.Join(parts, ", ")
	}
	if p.Age != nil {
		c.AgeRange = strconv.Itoa(*p.Age) + " years"
	}
	c.Sex = string(p.Sex)
	return c
}
