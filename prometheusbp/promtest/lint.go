package promtest

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"github.com/podlab/secretsbp.go/errorsbp"
)

var (
	errPrefix         = errors.New("the prefix is not at the beginning of the metric name")
	errLength         = errors.New("metric name should have a minimum of 3 parts, like prefix_name_suffix")
	errPrometheusLint = errors.New("problem with Prometheus GatherAndLint")
)

// ValidateMetrics validates that every gathered metric named
// metricPrefix_* follows the prometheus naming conventions and passes
// promlint.
//
// Vectors without any child are not gathered and thus not validated,
// so call it after the code under test has touched the metrics.
func ValidateMetrics(tb testing.TB, metricPrefix string) {
	tb.Helper()
	if err := validateMetrics(prometheus.DefaultGatherer, metricPrefix); err != nil {
		tb.Error(err)
	}
}

func validateMetrics(gatherer prometheus.Gatherer, metricPrefix string) error {
	families, err := gatherer.Gather()
	if err != nil {
		return err
	}

	var batch errorsbp.Batch
	for _, m := range families {
		name := m.GetName()
		if !strings.HasPrefix(name, metricPrefix+"_") {
			continue
		}
		batch.Add(validateName(name, metricPrefix))
		batch.Add(validatePromLint(gatherer, name))
	}
	return batch.Compile()
}

// validateName checks that the metric name is <prefix>_<metric>_<suffix>.
//
// Ref: https://prometheus.io/docs/practices/naming
func validateName(name, prefix string) error {
	const sep = "_"
	var batch errorsbp.Batch
	if parts := strings.Split(name, sep); len(parts) < 3 {
		batch.Add(fmt.Errorf("%w: got %d parts in %q", errLength, len(parts), name))
	}
	if !strings.HasPrefix(name, prefix+sep) {
		batch.Add(fmt.Errorf("%w: got %s, want prefix %s", errPrefix, name, prefix+sep))
	}
	return batch.Compile()
}

func validatePromLint(gatherer prometheus.Gatherer, name string) error {
	problems, err := testutil.GatherAndLint(gatherer, name)
	if err != nil {
		return err
	}
	var batch errorsbp.Batch
	for _, p := range problems {
		batch.Add(fmt.Errorf("%w: metric %s, problem %s", errPrometheusLint, name, p.Text))
	}
	return batch.Compile()
}

func histogramCount(tb testing.TB, h prometheus.Histogram) float64 {
	tb.Helper()
	var m dto.Metric
	if err := h.Write(&m); err != nil {
		tb.Fatalf("failed to write histogram: %v", err)
	}
	return float64(m.GetHistogram().GetSampleCount())
}
