package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bündelt die Prometheus-Zähler des Harvesters. Ein nil *Metrics ist erlaubt.
type Metrics struct {
	Gathered       prometheus.Counter
	Fetched        prometheus.Counter
	Imported       prometheus.Counter
	Errors         *prometheus.CounterVec
	ImagesRendered prometheus.Counter
}

// NewMetrics erstellt die Zähler und registriert sie bei reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Gathered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "harvest_objects_gathered_total",
			Help: "Total number of harvest objects created by the gather stage",
		}),
		Fetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "harvest_objects_fetched_total",
			Help: "Total number of harvest objects fetched successfully",
		}),
		Imported: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "harvest_objects_imported_total",
			Help: "Total number of harvest objects imported into the catalog",
		}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "harvest_errors_total",
			Help: "Total number of harvest errors by stage",
		}, []string{"stage"}),
		ImagesRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "molecule_images_rendered_total",
			Help: "Total number of rendered molecule images",
		}),
	}
	reg.MustRegister(m.Gathered, m.Fetched, m.Imported, m.Errors, m.ImagesRendered)
	return m
}

func (m *Metrics) gathered(n int) {
	if m != nil {
		m.Gathered.Add(float64(n))
	}
}

func (m *Metrics) fetched() {
	if m != nil {
		m.Fetched.Inc()
	}
}

func (m *Metrics) imported() {
	if m != nil {
		m.Imported.Inc()
	}
}

func (m *Metrics) errored(stage string) {
	if m != nil {
		m.Errors.WithLabelValues(stage).Inc()
	}
}

func (m *Metrics) rendered() {
	if m != nil {
		m.ImagesRendered.Inc()
	}
}
