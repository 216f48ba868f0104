package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/collegedesk/internal/domain/model"
)

// gather returns the metric family with the given name, or nil.
func gather(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

// counterValue sums the counter samples whose labels include every wanted pair.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) float64 {
	t.Helper()

	family := gather(t, reg, name)
	if family == nil {
		return 0
	}

	var total float64
	for _, metric := range family.GetMetric() {
		matched := 0
		for _, lp := range metric.GetLabel() {
			if v, ok := want[lp.GetName()]; ok && v == lp.GetValue() {
				matched++
			}
		}
		if matched == len(want) {
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}

func TestNew_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err, "registering the same collectors twice should fail")
}

func TestRecordFlags(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.RecordFlags([]model.Flag{model.FlagShortBody, model.FlagBurst})
	m.RecordFlags([]model.Flag{model.FlagShortBody})
	m.RecordFlags([]model.Flag{})

	assert.InDelta(t, 3, counterValue(t, reg, "collegedesk_reviews_evaluated_total", nil), 0)
	assert.InDelta(t, 2, counterValue(t, reg, "collegedesk_review_flags_total", map[string]string{"flag": string(model.FlagShortBody)}), 0)
	assert.InDelta(t, 1, counterValue(t, reg, "collegedesk_review_flags_total", map[string]string{"flag": string(model.FlagBurst)}), 0)
	assert.InDelta(t, 0, counterValue(t, reg, "collegedesk_review_flags_total", map[string]string{"flag": string(model.FlagDownvoted)}), 0)
}

func TestRecordEligibility(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.RecordEligibility("neet", 3, 10)
	m.RecordEligibility("neet", 1, 10)

	exam := map[string]string{"exam": "neet"}
	assert.InDelta(t, 2, counterValue(t, reg, "collegedesk_eligibility_checks_total", exam), 0)
	assert.InDelta(t, 20, counterValue(t, reg, "collegedesk_eligibility_colleges_evaluated_total", exam), 0)
	assert.InDelta(t, 4, counterValue(t, reg, "collegedesk_eligibility_colleges_matched_total", exam), 0)
}

func TestRecordEligibility_UnknownExamsShareOneLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	for i := range 50 {
		m.RecordEligibility(fmt.Sprintf("made_up_%d", i), 0, 10)
	}
	m.RecordEligibility("JEE Advanced", 1, 10)

	family := gather(t, reg, "collegedesk_eligibility_checks_total")
	require.NotNil(t, family)
	assert.Len(t, family.GetMetric(), 2)
	assert.InDelta(t, 50, counterValue(t, reg, "collegedesk_eligibility_checks_total", map[string]string{"exam": "other"}), 0)
	assert.InDelta(t, 1, counterValue(t, reg, "collegedesk_eligibility_checks_total", map[string]string{"exam": "jee_advanced"}), 0)
}

func TestRecordHTTPRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.RecordHTTPRequest("GET", "GET /api/v1/health", 200, 15*time.Millisecond)

	assert.InDelta(t, 1, counterValue(t, reg, "http_requests_total",
		map[string]string{"method": "GET", "route": "GET /api/v1/health", "status_code": "200"}), 0)

	family := gather(t, reg, "http_request_duration_seconds")
	require.NotNil(t, family)
	require.Len(t, family.GetMetric(), 1)
	assert.Equal(t, uint64(1), family.GetMetric()[0].GetHistogram().GetSampleCount())
}
