// Package prometheusbpint holds the prometheus registry shared by the
// secretsbp packages.
package prometheusbpint

import (
	"runtime/debug"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// GlobalRegistry is the registerer every secretsbp metric is created with.
var GlobalRegistry prometheus.Registerer = prometheus.DefaultRegisterer

var goModules = promauto.With(GlobalRegistry).NewGaugeVec(prometheus.GaugeOpts{
	Name: "secretsbp_go_modules",
	Help: "Version information of the Go modules linked into the binary. Always 1",
}, []string{"go_module", "module_role", "replaced", "module_version"})

// RecordModuleVersions records the modules linked into this binary in the
// secretsbp_go_modules metric.
//
// It's not safe to call concurrently.
func RecordModuleVersions(info *debug.BuildInfo) {
	record := func(role string, mod *debug.Module) {
		goModules.With(prometheus.Labels{
			"go_module":      mod.Path,
			"module_role":    role,
			"replaced":       strconv.FormatBool(mod.Replace != nil),
			"module_version": mod.Version,
		}).Set(1)
	}

	goModules.Reset()
	record("main", &info.Main)
	for _, dep := range info.Deps {
		record("dependency", dep)
	}
}
