package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestStockMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewStockMetrics(reg)

	metrics.IncMutation("adjust")
	metrics.IncMutation("adjust")
	metrics.IncReservation("created")
	metrics.IncNFeUnit("success")
	metrics.IncNFeUnit("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "stock_mutations_total", "path", "adjust"); err != nil {
		t.Fatalf("fetch mutations: %v", err)
	} else if got != 2 {
		t.Fatalf("expected mutations=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "reservations_total", "event", "created"); err != nil {
		t.Fatalf("fetch reservations: %v", err)
	} else if got != 1 {
		t.Fatalf("expected reservations=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "nfe_units_total", "outcome", "unknown"); err != nil {
		t.Fatalf("fetch nfe units: %v", err)
	} else if got != 1 {
		t.Fatalf("expected empty outcome to normalize to unknown=1, got %f", got)
	}
}

func TestStockMetricsNilRegistererIsNoop(t *testing.T) {
	metrics := NewStockMetrics(nil)
	metrics.IncMutation("adjust")
	metrics.IncReservation("created")
	metrics.IncNFeUnit("success")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
