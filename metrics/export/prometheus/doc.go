// Package prometheus provides Prometheus collectors for goJourney metrics.
//
// [NewPrometheusExporter] accepts a [goJourney.Engine] and exposes an [http.Handler]
// that renders all goJourney counters and histograms in Prometheus text exposition
// format. Counter names are prefixed gojourney_*_total; the single histogram is
// gojourney_submit_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate engine state.
package prometheus
