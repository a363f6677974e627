package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StockMetrics records counters for the stock mutation paths.
type StockMetrics struct {
	mutations    *prometheus.CounterVec
	reservations *prometheus.CounterVec
	nfeUnits     *prometheus.CounterVec
}

// NewStockMetrics registers the stock metrics on the provided registerer.
func NewStockMetrics(reg prometheus.Registerer) *StockMetrics {
	if reg == nil {
		return &StockMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_mutations_total",
		Help: "Stock mutations applied, by path.",
	}, []string{"path"})
	reservations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reservations_total",
		Help: "Reservation lifecycle events.",
	}, []string{"event"})
	nfeUnits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nfe_units_total",
		Help: "NFe ingestion units processed, by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(mutations, reservations, nfeUnits)
	return &StockMetrics{
		mutations:    mutations,
		reservations: reservations,
		nfeUnits:     nfeUnits,
	}
}

// IncMutation counts one applied stock mutation for the named path.
func (m *StockMetrics) IncMutation(path string) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(path)).Inc()
}

// IncReservation counts one reservation lifecycle event.
func (m *StockMetrics) IncReservation(event string) {
	if m == nil || m.reservations == nil {
		return
	}
	m.reservations.WithLabelValues(normalizeLabel(event)).Inc()
}

// IncNFeUnit counts one processed ingestion unit by outcome.
func (m *StockMetrics) IncNFeUnit(outcome string) {
	if m == nil || m.nfeUnits == nil {
		return
	}
	m.nfeUnits.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
