package otel

import (
	"context"
	"sync"
	"testing"

	goAttend "github.com/MrEthical07/goAttend"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	counters map[goAttend.MetricID]uint64
	latency  []uint64
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() goAttend.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := goAttend.MetricsSnapshot{
		Counters:   make(map[goAttend.MetricID]uint64, len(f.counters)),
		Histograms: map[goAttend.MetricID][]uint64{},
	}
	for k, v := range f.counters {
		out.Counters[k] = v
	}
	if f.latency != nil {
		out.Histograms[goAttend.MetricValidateLatency] = append([]uint64(nil), f.latency...)
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func newReader(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					out[m.Name] = dp.Value
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					out[m.Name] = dp.Value
				}
			}
		}
	}
	return out
}

func TestExporterCollectsCountersAndBuckets(t *testing.T) {
	reader, provider := newReader(t)
	src := &fakeSource{
		counters: map[goAttend.MetricID]uint64{goAttend.MetricLoginSuccess: 3},
		latency:  []uint64{1, 1, 1, 1, 1, 1, 1, 1},
		dropped:  1,
	}

	exp, err := NewExporterFromSource(provider.Meter("attend-test"), src)
	if err != nil {
		t.Fatalf("NewExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	got := collect(t, reader)
	if got["attend_login_success_total"] != 3 {
		t.Fatalf("expected login success 3, got %d", got["attend_login_success_total"])
	}
	if got["attend_validate_latency_seconds_bucket_le_0_1"] != 3 {
		t.Fatalf("expected cumulative bucket 3, got %d", got["attend_validate_latency_seconds_bucket_le_0_1"])
	}
	if got["attend_validate_latency_seconds_count"] != 8 {
		t.Fatalf("expected count 8, got %d", got["attend_validate_latency_seconds_count"])
	}
	if got["attend_audit_dropped_total"] != 1 {
		t.Fatalf("expected dropped 1, got %d", got["attend_audit_dropped_total"])
	}
}

func TestExporterRejectsNilInputs(t *testing.T) {
	_, provider := newReader(t)
	if _, err := NewExporterFromSource(provider.Meter("attend-test"), nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
	if _, err := NewExporterFromSource(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
	if _, err := NewExporter(provider.Meter("attend-test"), nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource for nil manager, got %v", err)
	}
}

func TestExporterConcurrentCollect(t *testing.T) {
	reader, provider := newReader(t)
	src := &fakeSource{counters: map[goAttend.MetricID]uint64{goAttend.MetricLogout: 1}}

	exp, err := NewExporterFromSource(provider.Meter("attend-test"), src)
	if err != nil {
		t.Fatalf("NewExporterFromSource failed: %v", err)
	}
	defer exp.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.counters[goAttend.MetricLogout] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}
