package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	analysisRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "inkmemory_analysis_requests_total",
		Help: "Outbound analysis service calls",
	})
	analysisFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "inkmemory_analysis_failures_total",
		Help: "Analysis service calls that returned an error",
	})
	admissions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "inkmemory_comment_admissions_total",
		Help: "Comments admitted into the document",
	})
	rejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inkmemory_comment_rejections_total",
		Help: "Waitlisted comments rejected at admission",
	}, []string{"reason"})
	currentEnergy = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "inkmemory_session_energy",
		Help: "Accumulated writing energy per session",
	}, []string{"session"})
)

func init() {
	prometheus.MustRegister(analysisRequests, analysisFailures, admissions, rejections, currentEnergy)
}
