package otel

import (
	"context"
	"sync"
	"testing"

	goBoard "github.com/MrEthical07/goBoard"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot goBoard.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() goBoard.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := goBoard.MetricsSnapshot{
		Counters:   make(map[goBoard.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[goBoard.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		next := make([]uint64, len(buckets))
		copy(next, buckets)
		out.Histograms[k] = next
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("goboard-test")

	src := &fakeSource{
		snapshot: goBoard.MetricsSnapshot{
			Counters: map[goBoard.MetricID]uint64{
				goBoard.MetricSessionLogin: 3,
			},
			Histograms: map[goBoard.MetricID][]uint64{
				goBoard.MetricAPILatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		dropped: 1,
	}

	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(rm.ScopeMetrics) == 0 {
		t.Fatal("expected collected metrics, got none")
	}
}

func TestExporterRejectsNilSource(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("goboard-test")

	if _, err := NewOTelExporterFromSource(meter, nil); err == nil {
		t.Fatal("expected error for nil source")
	}
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("goboard-test")

	src := &fakeSource{
		snapshot: goBoard.MetricsSnapshot{
			Counters: map[goBoard.MetricID]uint64{
				goBoard.MetricSessionLogin: 1,
			},
			Histograms: map[goBoard.MetricID][]uint64{
				goBoard.MetricAPILatency: {1, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}

	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[goBoard.MetricSessionLogin] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}

// point returns the value of the data point of metric name whose attribute key equals
// value. An empty key selects the point without attributes.
func point(t *testing.T, rm metricdata.ResourceMetrics, name, key, value string) int64 {
	t.Helper()
	match := func(set attribute.Set) bool {
		if key == "" {
			return set.Len() == 0
		}
		v, ok := set.Value(attribute.Key(key))
		return ok && v.AsString() == value
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					if match(dp.Attributes) {
						return dp.Value
					}
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					if match(dp.Attributes) {
						return dp.Value
					}
				}
			}
		}
	}
	t.Fatalf("no point %s{%s=%q}", name, key, value)
	return 0
}

func collect(t *testing.T, src *fakeSource) metricdata.ResourceMetrics {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	exp, err := NewOTelExporterFromSource(provider.Meter("goboard-test"), src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	t.Cleanup(func() { _ = exp.Close() })

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	return rm
}

func TestExporterPublishesCumulativeBuckets(t *testing.T) {
	rm := collect(t, &fakeSource{
		snapshot: goBoard.MetricsSnapshot{
			Counters: map[goBoard.MetricID]uint64{},
			Histograms: map[goBoard.MetricID][]uint64{
				goBoard.MetricAPILatency: {2, 0, 1, 0, 0, 0, 0, 3},
			},
		},
	})

	if got := point(t, rm, "goboard_api_latency_seconds_bucket", "le", "0.025"); got != 3 {
		t.Fatalf("cumulative bucket 0.025: %d", got)
	}
	if got := point(t, rm, "goboard_api_latency_seconds_bucket", "le", "+Inf"); got != 6 {
		t.Fatalf("+Inf bucket: %d", got)
	}
	if got := point(t, rm, "goboard_api_latency_seconds_count", "", ""); got != 6 {
		t.Fatalf("count: %d", got)
	}
}

func TestExporterGroupsCountersByAttribute(t *testing.T) {
	rm := collect(t, &fakeSource{
		snapshot: goBoard.MetricsSnapshot{
			Counters: map[goBoard.MetricID]uint64{
				goBoard.MetricGuardGranted:          9,
				goBoard.MetricGuardDeniedAnonymous:  4,
				goBoard.MetricSessionRestoreExpired: 2,
				goBoard.MetricSessionLogout:         5,
				goBoard.MetricAPIFailure:            7,
				goBoard.MetricAPIUnauthorized:       3,
				goBoard.MetricLoginThrottled:        1,
			},
			Histograms: map[goBoard.MetricID][]uint64{},
		},
		dropped: 6,
	})

	checks := []struct {
		name, key, value string
		want             int64
	}{
		{"goboard_guard_decisions_total", "state", "granted", 9},
		{"goboard_guard_decisions_total", "state", "denied-anonymous", 4},
		{"goboard_guard_decisions_total", "state", "denied-wrong-role", 0},
		{"goboard_session_restores_total", "outcome", "expired", 2},
		{"goboard_session_transitions_total", "reason", "logout", 5},
		{"goboard_api_failures_total", "kind", "unauthorized", 3},
		{"goboard_api_failures_total", "kind", "other", 4},
		{"goboard_login_throttled_total", "", "", 1},
		{"goboard_audit_dropped_total", "", "", 6},
	}
	for _, c := range checks {
		if got := point(t, rm, c.name, c.key, c.value); got != c.want {
			t.Fatalf("%s{%s=%q} = %d, want %d", c.name, c.key, c.value, got, c.want)
		}
	}
}

func TestExporterSkipsAbsentHistogram(t *testing.T) {
	rm := collect(t, &fakeSource{
		snapshot: goBoard.MetricsSnapshot{
			Counters:   map[goBoard.MetricID]uint64{},
			Histograms: map[goBoard.MetricID][]uint64{},
		},
	})
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "goboard_api_latency_seconds_count" {
				if g, ok := m.Data.(metricdata.Gauge[int64]); ok && len(g.DataPoints) > 0 {
					t.Fatal("latency must not be reported when histograms are disabled")
				}
			}
		}
	}
}
