package s3fs

import "time"

// Config carries the per-backend settings a Backend needs beyond the
// credential and HTTP client it's constructed with: bucket addressing,
// multipart tuning, and the per-request timeout. The retry policy is set
// separately with Backend.WithRetryer. There are no transfer-acceleration or
// dual-stack knobs, since those are AWS SDK options this hand-rolled REST
// client never exposes.
type Config struct {
	Bucket string
	Region string

	// Endpoint overrides the default virtual-hosted-style
	// https://<bucket>.s3.<region>.amazonaws.com address, for S3-compatible
	// stores (MinIO, etc). When set, PathStyle is typically also set.
	Endpoint string

	// PathStyle addresses objects as <endpoint>/<bucket>/<key> instead of
	// <bucket>.<endpoint>/<key>. Required for most S3-compatible stores.
	PathStyle bool

	// MultipartThreshold is the size in bytes at or above which a write uses
	// multipart upload instead of a single PUT. Defaults to 5 MiB.
	MultipartThreshold int64

	// MultipartConcurrency bounds how many parts upload concurrently within
	// one multipart upload.
	MultipartConcurrency int

	// RequestTimeout bounds each individual HTTP request (not the overall
	// retry loop).
	RequestTimeout time.Duration
}

// DefaultMultipartThreshold is the 5 MiB default part threshold.
const DefaultMultipartThreshold = 5 * 1024 * 1024

// DefaultMultipartConcurrency bounds concurrent part uploads absent an
// explicit Config.MultipartConcurrency.
const DefaultMultipartConcurrency = 4

func (c Config) multipartThreshold() int64 {
	if c.MultipartThreshold > 0 {
		return c.MultipartThreshold
	}
	return DefaultMultipartThreshold
}

func (c Config) multipartConcurrency() int {
	if c.MultipartConcurrency > 0 {
		return c.MultipartConcurrency
	}
	return DefaultMultipartConcurrency
}
