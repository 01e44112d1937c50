package server

import "github.com/prometheus/client_golang/prometheus"

var (
	askRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ask_requests_total",
			Help: "Total number of ask API requests",
		},
		[]string{"status"},
	)
	askRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "ask_request_duration_seconds",
			Help: "Duration of ask API requests",
		},
	)
	workflowRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_runs_total",
			Help: "Total number of workflow runs by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(askRequestsTotal, askRequestDuration, workflowRunsTotal)
}
