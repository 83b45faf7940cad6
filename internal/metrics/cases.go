package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"docudeep/internal/model"
	"docudeep/internal/validation"
)

// CaseMetrics counts what the upload pipeline accepts and rejects.
type CaseMetrics struct {
	casesCreated       prometheus.Counter
	documentsStored    *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
}

// NewCaseMetrics creates the collectors and registers them on reg.
func NewCaseMetrics(reg prometheus.Registerer) (*CaseMetrics, error) {
	m := &CaseMetrics{
		casesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "docudeep",
			Name:      "cases_created_total",
			Help:      "Total number of cases persisted.",
		}),
		documentsStored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docudeep",
			Name:      "documents_stored_total",
			Help:      "Total number of documents persisted, by declared type.",
		}, []string{"type"}),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docudeep",
			Name:      "validation_failures_total",
			Help:      "Total number of rejected case submissions, by validation code.",
		}, []string{"code"}),
	}

	for _, c := range []prometheus.Collector{m.casesCreated, m.documentsStored, m.validationFailures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// CaseCreated records a persisted case. A nil receiver is a no-op.
func (m *CaseMetrics) CaseCreated(rec *model.CaseRecord) {
	if m == nil {
		return
	}
	m.casesCreated.Inc()
	for _, d := range rec.Documents {
		m.documentsStored.WithLabelValues(string(d.Type)).Inc()
	}
}

// ValidationFailed records a rejected submission. A nil receiver is a no-op.
func (m *CaseMetrics) ValidationFailed(code validation.Code) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(string(code)).Inc()
}
