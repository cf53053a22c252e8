package providers

import (
	"fmt"
	"hash/fnv"
)

// stableFileID derives a deterministic candidate identifier from a download
// URL for sources that expose no native subtitle id. FNV-1a keeps the id
// stable across runs and processes, so a candidate chosen from one search can
// be retrieved by a later call.
func stableFileID(url string) string {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(url))
	return fmt.Sprintf("%016x", hasher.Sum64())
}
