// Package prometheus renders session metrics in the Prometheus text
// exposition format.
//
// Counters are named attend_*_total; the single histogram is
// attend_validate_latency_seconds. The package never touches a global
// registry; callers mount [Exporter.Handler] or call [Exporter.Render].
package prometheus
