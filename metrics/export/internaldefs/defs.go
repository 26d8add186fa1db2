package internaldefs

import (
	goAttend "github.com/MrEthical07/goAttend"
)

// CounterDef names one session counter.
type CounterDef struct {
	ID   goAttend.MetricID
	Name string
	Help string
}

// HistogramDef names one latency histogram.
type HistogramDef struct {
	ID   goAttend.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in render order.
var CounterDefs = []CounterDef{
	{ID: goAttend.MetricLoginSuccess, Name: "attend_login_success_total", Help: "Logins that produced a token."},
	{ID: goAttend.MetricLoginFailure, Name: "attend_login_failure_total", Help: "Logins rejected by the backend."},
	{ID: goAttend.MetricLoginConnectionError, Name: "attend_login_connection_error_total", Help: "Logins that could not reach the backend."},
	{ID: goAttend.MetricLogout, Name: "attend_logout_total", Help: "Logout operations."},
	{ID: goAttend.MetricRestoreAuthenticated, Name: "attend_restore_authenticated_total", Help: "Restores that recovered a valid session."},
	{ID: goAttend.MetricRestoreRejected, Name: "attend_restore_rejected_total", Help: "Restores whose persisted token was refused."},
	{ID: goAttend.MetricRestoreEmpty, Name: "attend_restore_empty_total", Help: "Restores without a persisted token."},
	{ID: goAttend.MetricBiometricSuccess, Name: "attend_biometric_success_total", Help: "Biometric prompts that led to a login attempt."},
	{ID: goAttend.MetricBiometricFailure, Name: "attend_biometric_failure_total", Help: "Biometric attempts stopped before login."},
	{ID: goAttend.MetricRefreshRevoked, Name: "attend_refresh_revoked_total", Help: "Sessions logged out by refresh after server-side invalidation."},
	{ID: goAttend.MetricStateReset, Name: "attend_state_reset_total", Help: "Full session resets."},
	{ID: goAttend.MetricStorageFailure, Name: "attend_storage_failure_total", Help: "Failed writes or deletes against the persistent store."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goAttend.MetricValidateLatency, Name: "attend_validate_latency_seconds", Help: "Backend token validation latency."},
}

// HistogramBounds are the upper bounds of the latency buckets, in seconds.
var HistogramBounds = []string{
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"+Inf",
}

// HistogramBoundSuffix names each bucket for exporters that cannot carry
// labels.
var HistogramBoundSuffix = []string{
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed 8-bucket array, zero-filling
// missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into Prometheus-style
// cumulative counts.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
