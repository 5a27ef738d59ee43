// Package workers sizes the transcode worker pool for the host it runs
// on.
package workers

import (
	"os"
	"runtime"
	"strconv"

	"signage/internal/logging"
)

// ForCPU returns the worker count for the CPU-bound transcode pool: one
// per available CPU, honoring container quotas via GOMAXPROCS, capped at
// limit when limit is positive. The TRANSCODE_WORKERS environment
// variable overrides the calculation.
func ForCPU(limit int) int {
	count := runtime.GOMAXPROCS(0)

	if override := os.Getenv("TRANSCODE_WORKERS"); override != "" {
		n, err := strconv.Atoi(override)
		if err != nil || n < 1 {
			logging.Warn("Ignoring invalid TRANSCODE_WORKERS=%q", override)
		} else {
			count = n
		}
	}

	if count < 1 {
		count = 1
	}
	if limit > 0 && count > limit {
		count = limit
	}
	return count
}
