// Package prometheusbp holds the shared prometheus conventions of the
// secretsbp packages.
package prometheusbp

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Label values shared by the result labels of secretsbp metrics.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// DefaultLatencyBuckets is the default bucket values for a prometheus
// histogram measuring latencies.
var DefaultLatencyBuckets = prometheus.ExponentialBuckets(0.0001, 2.5, 14) // 100us ~ 14.9s
