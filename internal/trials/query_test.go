package trials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deeperscribe/deeperscribe/internal/profile"
)

func intPtr(v int) *int { return &v }

func TestBuildQuery(t *testing.T) {
	t.Parallel()

	t.Run("diagnosis is normalized into the condition term", func(t *testing.T) {
		t.Parallel()
		p := &profile.PatientProfile{Diagnosis: "Stage II Ductal Carcinoma"}
		q := BuildQuery(p, nil, 10)
		assert.Equal(t, "breast cancer", q.Get("query.cond"))
	})

	t.Run("first condition used when no diagnosis", func(t *testing.T) {
		t.Parallel()
		p := &profile.PatientProfile{Conditions: []string{"Hypertension", "Asthma"}}
		q := BuildQuery(p, nil, 10)
		assert.Equal(t, "Hypertension", q.Get("query.cond"))
		assert.Equal(t, "Asthma", q.Get("query.term"))
	})

	t.Run("complexity bounded with many conditions", func(t *testing.T) {
		t.Parallel()
		p := &profile.PatientProfile{
			Diagnosis:  "diabetes",
			Conditions: []string{"Hypertension", "Obesity", "Sleep Apnea", "CKD", "Anemia"},
		}
		q := BuildQuery(p, nil, 10)
		assert.Len(t, q["query.cond"], 1)
		require.Len(t, q["query.term"], 1)
		assert.Equal(t, "Hypertension", q.Get("query.term"))
	})

	t.Run("state preferred over city for location", func(t *testing.T) {
		t.Parallel()
		p := &profile.PatientProfile{
			Location: &profile.Location{City: "Denver", State: "Colorado"},
		}
		q := BuildQuery(p, nil, 10)
		assert.Equal(t, "Colorado, United States", q.Get("query.locn"))
	})

	t.Run("city used when no state", func(t *testing.T) {
		t.Parallel()
		p := &profile.PatientProfile{Location: &profile.Location{City: "Denver"}}
		q := BuildQuery(p, nil, 10)
		assert.Equal(t, "Denver, United States", q.Get("query.locn"))
	})

	t.Run("adults constrained to recruiting trials", func(t *testing.T) {
		t.Parallel()
		adult := &profile.PatientProfile{Age: intPtr(52)}
		assert.Equal(t, "RECRUITING", BuildQuery(adult, nil, 10).Get("filter.overallStatus"))

		minor := &profile.PatientProfile{Age: intPtr(12)}
		assert.Empty(t, BuildQuery(minor, nil, 10).Get("filter.overallStatus"))

		unknown := &profile.PatientProfile{}
		assert.Empty(t, BuildQuery(unknown, nil, 10).Get("filter.overallStatus"))
	})

	t.Run("explicit ids add a filter without removing condition terms", func(t *testing.T) {
		t.Parallel()
		p := &profile.PatientProfile{Diagnosis: "copd"}
		q := BuildQuery(p, []string{"NCT12345678", "NCT123", "NCT87654321"}, 10)
		assert.Equal(t, "NCT12345678,NCT87654321", q.Get("filter.ids"))
		assert.Equal(t, "copd", q.Get("query.cond"))
	})

	t.Run("fixed parameters always present", func(t *testing.T) {
		t.Parallel()
		q := BuildQuery(&profile.PatientProfile{}, nil, 10)
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "true", q.Get("countTotal"))
		assert.Equal(t, "10", q.Get("pageSize"))
	})

	t.Run("page size capped at the ceiling", func(t *testing.T) {
		t.Parallel()
		q := BuildQuery(&profile.PatientProfile{}, nil, 50)
		assert.Equal(t, "20", q.Get("pageSize"))
	})
}

func TestClampMaxResults(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultMaxResults, ClampMaxResults(0))
	assert.Equal(t, DefaultMaxResults, ClampMaxResults(-3))
	assert.Equal(t, 5, ClampMaxResults(5))
	assert.Equal(t, MaxResults, ClampMaxResults(200))
}

func TestValidNCTID(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidNCTID("NCT12345678"))
	assert.False(t, ValidNCTID("NCT123"))
	assert.False(t, ValidNCTID("nct12345678"))
	assert.False(t, ValidNCTID("NCT123456789"))
	assert.False(t, ValidNCTID(""))
}
