// Package metrics defines the Prometheus collectors scanctl records into.
package metrics

// Namespace prefixes every metric name
const Namespace = "scanctl"

// Histogram bucket parameters
const (
	// 5ms to ~40s, covers API calls
	BucketStart5ms = 0.005
	BucketFactor2  = 2.0
	BucketCount14  = 14

	// 100ms to ~27min, covers multi-gigabyte uploads
	BucketStart100ms = 0.1
	BucketFactor3    = 3.0
	BucketCount10    = 10
)

// Status values shared by several collectors
const (
	StatusSuccess = "success"
	StatusError   = "error"
)
