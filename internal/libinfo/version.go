/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

// Package libinfo reports the version of the go-funnel module linked into the running binary.
package libinfo

import (
	"runtime/debug"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const modulePath = "github.com/acronis/go-funnel"

// PrometheusVersionLabel is a constant label attached to every metric exported by the module.
const PrometheusVersionLabel = "go_funnel_version"

const unknownVersion = "v0.0.0"

// WithVersionLabel returns a copy of labels extended with PrometheusVersionLabel.
func WithVersionLabel(labels prometheus.Labels) prometheus.Labels {
	res := make(prometheus.Labels, len(labels)+1)
	for k, v := range labels {
		res[k] = v
	}
	res[PrometheusVersionLabel] = Version()
	return res
}

var (
	version     string
	versionOnce sync.Once
)

// Version returns the version of the module, or "v0.0.0" if it cannot be determined.
func Version() string {
	versionOnce.Do(func() {
		if buildInfo, ok := debug.ReadBuildInfo(); ok {
			version = findModuleVersion(buildInfo, modulePath)
		}
		if version == "" {
			version = unknownVersion
		}
	})
	return version
}

// findModuleVersion looks for the module both as the main module (demo binaries built from this repository)
// and as a dependency. A major version suffix like "/v2" is accepted.
func findModuleVersion(buildInfo *debug.BuildInfo, path string) string {
	if buildInfo == nil {
		return ""
	}
	if isModulePath(buildInfo.Main.Path, path) && buildInfo.Main.Version != "(devel)" {
		return buildInfo.Main.Version
	}
	for _, dep := range buildInfo.Deps {
		if isModulePath(dep.Path, path) {
			if dep.Replace != nil && dep.Replace.Version != "" {
				return dep.Replace.Version
			}
			return dep.Version
		}
	}
	return ""
}

func isModulePath(candidate, path string) bool {
	if candidate == path {
		return true
	}
	suffix, ok := strings.CutPrefix(candidate, path+"/v")
	if !ok || suffix == "" {
		return false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
