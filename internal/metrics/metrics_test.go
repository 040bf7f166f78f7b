package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findMetric は名前とラベル値に一致するメトリクスを返す。
func findMetric(t *testing.T, reg *prometheus.Registry, name string, labelValue string) *dto.Metric {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelValue == "" {
				return m
			}
			for _, lp := range m.GetLabel() {
				if lp.GetValue() == labelValue {
					return m
				}
			}
		}
	}
	t.Fatalf("metric %s{%s} not found", name, labelValue)
	return nil
}

func TestNewCollector_ReturnsNonNil(t *testing.T) {
	if c := NewCollector(prometheus.NewRegistry()); c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

func TestRecordRelayAttempt_CountsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRelayAttempt(RelayOutcomeTransport)
	c.RecordRelayAttempt(RelayOutcomeTransport)
	c.RecordRelayAttempt(RelayOutcomeOK)

	if v := findMetric(t, reg, "arxivnotify_relay_attempts_total", RelayOutcomeTransport).GetCounter().GetValue(); v != 2 {
		t.Errorf("relay_attempts_total{transport} = %v, want 2", v)
	}
	if v := findMetric(t, reg, "arxivnotify_relay_attempts_total", RelayOutcomeOK).GetCounter().GetValue(); v != 1 {
		t.Errorf("relay_attempts_total{ok} = %v, want 1", v)
	}
}

func TestRecordFallbacks_CountByCategory(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCacheFallback("cs")
	c.RecordUnavailable("math")
	c.RecordAssistedFallback("no_credential")

	if v := findMetric(t, reg, "arxivnotify_cache_fallbacks_total", "cs").GetCounter().GetValue(); v != 1 {
		t.Errorf("cache_fallbacks_total{cs} = %v, want 1", v)
	}
	if v := findMetric(t, reg, "arxivnotify_unavailable_total", "math").GetCounter().GetValue(); v != 1 {
		t.Errorf("unavailable_total{math} = %v, want 1", v)
	}
	if v := findMetric(t, reg, "arxivnotify_assisted_fallbacks_total", "no_credential").GetCounter().GetValue(); v != 1 {
		t.Errorf("assisted_fallbacks_total{no_credential} = %v, want 1", v)
	}
}

func TestRecordDispatch_CountsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordDispatch("sent")
	c.RecordDispatch("template")

	if v := findMetric(t, reg, "arxivnotify_dispatch_total", "sent").GetCounter().GetValue(); v != 1 {
		t.Errorf("dispatch_total{sent} = %v, want 1", v)
	}
	if v := findMetric(t, reg, "arxivnotify_dispatch_total", "template").GetCounter().GetValue(); v != 1 {
		t.Errorf("dispatch_total{template} = %v, want 1", v)
	}
}

func TestRecordLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordFetchLatency(200 * time.Millisecond)
	c.RecordFetchLatency(800 * time.Millisecond)
	c.RecordRefreshLatency(3 * time.Second)

	h := findMetric(t, reg, "arxivnotify_fetch_latency_seconds", "").GetHistogram()
	if h.GetSampleCount() != 2 {
		t.Errorf("fetch_latency sample_count = %d, want 2", h.GetSampleCount())
	}
	if sum := h.GetSampleSum(); sum < 0.99 || sum > 1.01 {
		t.Errorf("fetch_latency sample_sum = %v, want ~1.0", sum)
	}

	r := findMetric(t, reg, "arxivnotify_refresh_latency_seconds", "").GetHistogram()
	if r.GetSampleCount() != 1 {
		t.Errorf("refresh_latency sample_count = %d, want 1", r.GetSampleCount())
	}
}

func TestMultipleCollectors_IndependentRegistries(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()
	c1 := NewCollector(reg1)
	_ = NewCollector(reg2)

	c1.RecordDispatch("sent")

	families, err := reg2.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == "arxivnotify_dispatch_total" && len(mf.GetMetric()) > 0 {
			t.Error("reg2 should not observe c1's dispatch")
		}
	}
}

func TestNop_ImplementsInterface(t *testing.T) {
	var c MetricsCollector = Nop{}
	c.RecordRelayAttempt(RelayOutcomeOK)
	c.RecordRefreshLatency(time.Second)
}
