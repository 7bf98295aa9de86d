// Package s3fs implements types.Fs over the S3 REST API: GET/PUT/DELETE/HEAD
// object, paginated ListObjectsV2, ranged reads, and multipart upload for
// writes crossing the configured part threshold.
// Every request is built as a types.HttpRequest, signed by an
// internal/awssig.Authorizer, sent through a types.HttpClient, and retried
// per pkg/retry's full-jitter policy.
package s3fs
