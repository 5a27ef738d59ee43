// Package workers calculates worker pool sizes based on available CPUs,
// with environment variable overrides for manual tuning.
package workers
