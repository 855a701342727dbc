package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics - Track deployment steps and runs
var (
	StepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fula_deployer_steps_total",
			Help: "Total number of pipeline steps by step and outcome",
		},
		[]string{"step", "outcome"},
	)

	StepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fula_deployer_step_duration_seconds",
			Help:    "Time taken by a single pipeline step, including inclusion wait",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"step"},
	)

	DeploymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fula_deployer_deployments_total",
			Help: "Total number of deployment runs by terminal state",
		},
		[]string{"state"},
	)
)

// Transaction metrics - Track chain submissions
var (
	TransactionsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fula_deployer_transactions_submitted_total",
			Help: "Total number of transactions submitted by host function and outcome",
		},
		[]string{"op", "outcome"},
	)

	InclusionWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fula_deployer_inclusion_wait_seconds",
		Help:    "Time between sendTransaction and a terminal getTransaction status",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	})

	ResourceFee = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fula_deployer_resource_fee_stroops",
		Help:    "Minimum resource fee reported by simulation",
		Buckets: prometheus.ExponentialBuckets(10_000, 4, 8),
	})
)

// RPC metrics - Track requests against the Soroban RPC endpoint
var (
	RPCRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fula_deployer_rpc_requests_total",
			Help: "Total number of RPC requests by method",
		},
		[]string{"method"},
	)

	RPCErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fula_deployer_rpc_errors_total",
			Help: "Total number of failed RPC requests by method",
		},
		[]string{"method"},
	)
)

// Error metrics - Track failures
var (
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fula_deployer_errors_total",
			Help: "Total number of errors by service",
		},
		[]string{"service"},
	)
)

// WriteTextfile dumps the default registry in the node_exporter textfile
// format for one-shot runs that are never scraped.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
