// Package metrics exposes Prometheus collectors for submissions, report
// builds and archive uploads.
package metrics

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ns = "schws"

	LabelResult = "result"

	ResultOK      = "ok"
	ResultSuccess = "success"
	ResultFailure = "failure"
)

type Metrics struct {
	Submissions        *prometheus.CounterVec
	ReportBuildSeconds prometheus.Histogram
	ArchiveUploads     *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Submissions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "submissions_total", Namespace: ns, Subsystem: "gate",
			Help: fmt.Sprintf("The number of survey submissions, by result (%s or an error code).", ResultOK),
		}, []string{LabelResult}),
		ReportBuildSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name: "build_seconds", Namespace: ns, Subsystem: "report",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			Help:    "The time taken to scan the store and assemble the report.",
		}),
		ArchiveUploads: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "uploads_total", Namespace: ns, Subsystem: "archive",
			Help: fmt.Sprintf("The number of snapshot uploads, by result (%s).",
				strings.Join([]string{ResultSuccess, ResultFailure}, ", ")),
		}, []string{LabelResult}),
	}
}

// Submission counts one submission outcome. A nil Metrics is a no-op.
func (m *Metrics) Submission(result string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(result).Inc()
}

func (m *Metrics) ReportBuilt(d time.Duration) {
	if m == nil {
		return
	}
	m.ReportBuildSeconds.Observe(d.Seconds())
}

func (m *Metrics) ArchiveUpload(err error) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	m.ArchiveUploads.WithLabelValues(result).Inc()
}

// Handler serves the collectors gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
