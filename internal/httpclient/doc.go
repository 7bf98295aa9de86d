// Package httpclient adapts net/http to the types.HttpClient capability
// consumed by internal/s3fs and internal/awssig's instance-credential
// retrieval.
package httpclient
