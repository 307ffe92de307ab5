package internaldefs

import (
	goJourney "github.com/MrEthical07/goJourney"
)

// CounterDef binds a [goJourney.MetricID] to its stable exported name.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   goJourney.MetricID
	Name string
	Help string
}

// HistogramDef binds a histogram [goJourney.MetricID] to its stable exported name.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   goJourney.MetricID
	Name string
	Help string
}

// CounterDefs is the shared counter vocabulary of all exporters.
var CounterDefs = []CounterDef{
	{ID: goJourney.MetricJourneyStarted, Name: "gojourney_started_total", Help: "Journeys opened."},
	{ID: goJourney.MetricJourneyStartFailed, Name: "gojourney_start_failed_total", Help: "Initiating exchanges that failed fatally."},
	{ID: goJourney.MetricSessionRecovered, Name: "gojourney_session_recovered_total", Help: "Login starts resolved by an existing token."},
	{ID: goJourney.MetricStepAdvanced, Name: "gojourney_step_advanced_total", Help: "Steps handed to the caller for rendering."},
	{ID: goJourney.MetricStepMerged, Name: "gojourney_step_merged_total", Help: "Retried steps merged with preserved input."},
	{ID: goJourney.MetricStepReplaced, Name: "gojourney_step_replaced_total", Help: "Retried steps adopted without a merge."},
	{ID: goJourney.MetricSubmitFailure, Name: "gojourney_submit_failure_total", Help: "Transport-level submit failures."},
	{ID: goJourney.MetricRetrySwallowed, Name: "gojourney_retry_swallowed_total", Help: "Retry-of-retry failures dropped by design."},
	{ID: goJourney.MetricAuthenticated, Name: "gojourney_authenticated_total", Help: "Journeys reaching terminal success."},
	{ID: goJourney.MetricFatalError, Name: "gojourney_fatal_error_total", Help: "Journeys reaching terminal failure."},
	{ID: goJourney.MetricPostAuthSuccess, Name: "gojourney_postauth_success_total", Help: "Completed post-authentication sequences."},
	{ID: goJourney.MetricPostAuthFailure, Name: "gojourney_postauth_failure_total", Help: "Failed post-authentication sequences."},
	{ID: goJourney.MetricLogoutForced, Name: "gojourney_logout_forced_total", Help: "Logouts forced by a failed user-info fetch."},
	{ID: goJourney.MetricNoticeDropped, Name: "gojourney_notice_dropped_total", Help: "Notices discarded under backpressure."},
}

// HistogramDefs is the shared histogram vocabulary of all exporters.
var HistogramDefs = []HistogramDef{
	{ID: goJourney.MetricSubmitLatency, Name: "gojourney_submit_latency_seconds", Help: "Submit round-trip latency histogram."},
}

// HistogramBounds are the upper bucket bounds, in seconds, as exported.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix mirrors HistogramBounds with identifier-safe names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// eight-bucket layout.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// Prometheus histograms expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
