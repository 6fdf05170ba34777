package internaldefs

import (
	goBoard "github.com/MrEthical07/goBoard"
)

// CounterDef names one counter for every exporter.
type CounterDef struct {
	ID   goBoard.MetricID
	Name string
	Help string
}

// HistogramDef names one histogram for every exporter.
type HistogramDef struct {
	ID   goBoard.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: goBoard.MetricSessionRestored, Name: "goboard_session_restored_total", Help: "Browser contexts hydrated from durable storage."},
	{ID: goBoard.MetricSessionRestoreEmpty, Name: "goboard_session_restore_empty_total", Help: "Browser contexts with nothing to restore."},
	{ID: goBoard.MetricSessionRestoreMalformed, Name: "goboard_session_restore_malformed_total", Help: "Unreadable or inconsistent session records discarded."},
	{ID: goBoard.MetricSessionRestoreExpired, Name: "goboard_session_restore_expired_total", Help: "Persisted sessions discarded because the token had expired."},
	{ID: goBoard.MetricSessionLogin, Name: "goboard_session_login_total", Help: "Sessions established by login."},
	{ID: goBoard.MetricSessionUpdate, Name: "goboard_session_update_total", Help: "Sessions refreshed by a profile edit."},
	{ID: goBoard.MetricSessionLogout, Name: "goboard_session_logout_total", Help: "Sessions ended by logout or a backend 401."},
	{ID: goBoard.MetricSessionExpired, Name: "goboard_session_expired_total", Help: "Sessions ended because the token expired."},
	{ID: goBoard.MetricStorageFailure, Name: "goboard_storage_failure_total", Help: "Durable storage errors."},
	{ID: goBoard.MetricGuardGranted, Name: "goboard_guard_granted_total", Help: "Guarded requests let through."},
	{ID: goBoard.MetricGuardDeniedAnonymous, Name: "goboard_guard_denied_anonymous_total", Help: "Guarded requests redirected to the auth page."},
	{ID: goBoard.MetricGuardDeniedWrongRole, Name: "goboard_guard_denied_wrong_role_total", Help: "Guarded requests redirected home for a role mismatch."},
	{ID: goBoard.MetricLoginThrottled, Name: "goboard_login_throttled_total", Help: "Sign-in attempts refused after repeated failures."},
	{ID: goBoard.MetricGuardChecking, Name: "goboard_guard_checking_total", Help: "Guarded requests answered with the loading placeholder."},
	{ID: goBoard.MetricAPIRequest, Name: "goboard_api_requests_total", Help: "Backend API calls."},
	{ID: goBoard.MetricAPIFailure, Name: "goboard_api_failures_total", Help: "Backend API calls that failed."},
	{ID: goBoard.MetricAPIUnauthorized, Name: "goboard_api_unauthorized_total", Help: "Backend API calls answered with 401."},
}

var HistogramDefs = []HistogramDef{
	{ID: goBoard.MetricAPILatency, Name: "goboard_api_latency_seconds", Help: "Backend API call latency."},
}

// HistogramBounds are the finite bucket upper bounds in seconds. The eighth bucket
// is +Inf.
var HistogramBounds = []float64{
	0.005,
	0.01,
	0.025,
	0.05,
	0.1,
	0.25,
	0.5,
}

// NormalizeBuckets pads or truncates raw to eight buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
