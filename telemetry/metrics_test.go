package telemetry_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jlim0255-workship/AWS-EventBookingApp/rsvp"
	"github.com/jlim0255-workship/AWS-EventBookingApp/telemetry"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ rsvp.Recorder = (*telemetry.Metrics)(nil)

func TestMetrics_RSVPs(t *testing.T) {
	t.Parallel()

	m := telemetry.NewMetrics()

	m.RSVPSubmitted(rsvp.ResultRecorded)
	m.RSVPSubmitted(rsvp.ResultRecorded)
	m.RSVPSubmitted(rsvp.ResultDuplicate)
	m.NotificationFailed()

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	values := map[string]float64{}

	for _, f := range families {
		for _, metric := range f.GetMetric() {
			if f.GetName() == "rsvpd_rsvp_submissions_total" {
				values[metric.GetLabel()[0].GetValue()] = metric.GetCounter().GetValue()
			}

			if f.GetName() == "rsvpd_rsvp_notification_failures_total" {
				values["notification_failures"] = metric.GetCounter().GetValue()
			}
		}
	}

	assert.InDelta(t, 2, values[rsvp.ResultRecorded], 0)
	assert.InDelta(t, 1, values[rsvp.ResultDuplicate], 0)
	assert.InDelta(t, 1, values["notification_failures"], 0)
}

func TestMetrics_ObserveRequest(t *testing.T) {
	t.Parallel()

	m := telemetry.NewMetrics()

	m.ObserveRequest(http.MethodGet, "GET /stats/{event_id}", http.StatusOK, 20*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "GET /stats/{event_id}", http.StatusOK, 30*time.Millisecond)
	m.ObserveRequest(http.MethodPost, "POST /rsvp", http.StatusConflict, time.Millisecond)

	count, err := testutil.GatherAndCount(m.Registry(), "rsvpd_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per method, route and code")

	count, err = testutil.GatherAndCount(m.Registry(), "rsvpd_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := telemetry.NewMetrics()
	m.RSVPSubmitted(rsvp.ResultRecorded)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `rsvpd_rsvp_submissions_total{result="recorded"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
