package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docudeep/internal/model"
	"docudeep/internal/validation"
)

func TestCaseMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewCaseMetrics(reg)
	require.NoError(t, err)

	m.CaseCreated(&model.CaseRecord{Documents: []model.StoredDocument{
		{Type: model.TypeCharges},
		{Type: model.TypeCharges},
		{Type: model.TypePayslip},
	}})
	m.ValidationFailed(validation.CodeTooManyFiles)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.casesCreated))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.documentsStored.WithLabelValues("charges")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.documentsStored.WithLabelValues("bulletin_de_paie")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.validationFailures.WithLabelValues("TOO_MANY_FILES")))

	_, err = NewCaseMetrics(reg)
	assert.Error(t, err, "registering twice on the same registry must fail")
}

func TestCaseMetrics_NilReceiver(t *testing.T) {
	var m *CaseMetrics
	assert.NotPanics(t, func() {
		m.CaseCreated(&model.CaseRecord{})
		m.ValidationFailed(validation.CodeEmptyFile)
	})
}
