package encoding

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	fields    *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	documents prometheus.Counter
}

func newMetrics(r prometheus.Registerer) *metrics {
	return &metrics{
		fields: promauto.With(r).NewCounterVec(prometheus.CounterOpts{
			Name: "mql_encoder_fields_total",
			Help: "Total number of typed index fields written, by namespace.",
		}, []string{"field"}),
		fallbacks: promauto.With(r).NewCounterVec(prometheus.CounterOpts{
			Name: "mql_encoder_fallback_markers_total",
			Help: "Total number of paths marked for fallback evaluation, by marker.",
		}, []string{"marker"}),
		documents: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Name: "mql_encoder_documents_total",
			Help: "Total number of documents encoded.",
		}),
	}
}
