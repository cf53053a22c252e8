// Package workers supplies concurrency ceilings per workload class. The
// subtitle engine consumes the Budget interface only; the default probe is a
// stand-in for the system-resource prober that owns these numbers in the full
// application.
package workers

import "runtime"

// CategorySubtitleSearch is the workload class for batch subtitle searches.
const CategorySubtitleSearch = "subtitle_search"

// Budget reports how many concurrent workers a workload class may use.
type Budget interface {
	OptimalWorkerCount(category string) int
}

// Probe derives worker counts from the machine's CPU count.
type Probe struct{}

// OptimalWorkerCount returns a concurrency ceiling for the given category.
// Subtitle searches are network-bound, so the ceiling runs ahead of the CPU
// count but stays bounded to keep outbound request volume polite.
func (Probe) OptimalWorkerCount(category string) int {
	cpus := runtime.NumCPU()
	switch category {
	case CategorySubtitleSearch:
		return clamp(cpus, 2, 8)
	default:
		return clamp(cpus/2, 1, 4)
	}
}

// Fixed is a Budget that always answers with the same count. Used for tests
// and for the worker_count config override.
type Fixed int

func (f Fixed) OptimalWorkerCount(string) int {
	if f < 1 {
		return 1
	}
	return int(f)
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
