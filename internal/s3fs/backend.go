package s3fs

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/objectfs/iofs/internal/awssig"
	"github.com/objectfs/iofs/pkg/errors"
	"github.com/objectfs/iofs/pkg/retry"
	"github.com/objectfs/iofs/pkg/types"
)

// Backend implements types.Fs over the S3 REST API, composing
// internal/awssig, internal/httpclient, and pkg/retry directly instead of
// an AWS SDK client, since every request must go through the hand-rolled,
// bit-exact SigV4 signer.
type Backend struct {
	httpClient types.HttpClient
	retryer    *retry.Retryer
	config     Config

	credMu     sync.RWMutex
	credential *types.AwsCredential

	bufferPool *BufferPool
	metrics    *Metrics
	logger     *slog.Logger
}

// NewBackend constructs a Backend for the given bucket/region, authorizing
// every request with credential (rotatable via SetCredential).
func NewBackend(httpClient types.HttpClient, credential *types.AwsCredential, cfg Config) *Backend {
	logger := slog.Default().With("component", "s3fs", "bucket", cfg.Bucket)
	logger.Info("s3 backend constructed",
		"region", cfg.Region, "endpoint", cfg.Endpoint, "path_style", cfg.PathStyle,
		"multipart_threshold", cfg.multipartThreshold(), "multipart_concurrency", cfg.multipartConcurrency())

	b := &Backend{
		httpClient: httpClient,
		config:     cfg,
		credential: credential,
		bufferPool: NewBufferPool(int(cfg.multipartThreshold())),
		metrics:    NewMetrics(nil),
		logger:     logger,
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.OnRetry = b.logRetry
	b.retryer = retry.New(retryCfg)
	return b
}

// logRetry is installed as the default retryer's OnRetry hook so every
// retried attempt is visible in the logs, not just the final outcome.
func (b *Backend) logRetry(attempt int, err error, delay time.Duration) {
	b.logger.Warn("retrying s3 request", "attempt", attempt, "delay", delay, "error", err)
}

// WithRetryer overrides the default retry policy. The replacement is used
// as-is, including whatever OnRetry hook (if any) it was built with.
func (b *Backend) WithRetryer(r *retry.Retryer) *Backend {
	b.retryer = r
	return b
}

// WithMetrics overrides the Prometheus instrumentation, e.g. to share a
// registry across multiple backends.
func (b *Backend) WithMetrics(m *Metrics) *Backend {
	b.metrics = m
	return b
}

// SetCredential rotates the credential used to authorize subsequent
// requests by swapping the reference under a lock; it never mutates a
// credential value in place, so in-flight requests holding the old pointer
// finish signing with it safely.
func (b *Backend) SetCredential(credential *types.AwsCredential) {
	b.credMu.Lock()
	defer b.credMu.Unlock()
	b.credential = credential
}

func (b *Backend) currentCredential() *types.AwsCredential {
	b.credMu.RLock()
	defer b.credMu.RUnlock()
	return b.credential
}

// OpenOptions materializes an S3File. Write opens never touch the network;
// the object is created lazily on the first WriteAll/Close. Read opens are
// also lazy — existence is checked on first Size/Read.
func (b *Backend) OpenOptions(ctx context.Context, path types.Path, opts types.OpenOptions) (types.File, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &S3File{backend: b, path: path, key: path.Key(), opts: opts}, nil
}

// CreateDirAll is a no-op: S3 has no directories.
func (b *Backend) CreateDirAll(ctx context.Context, path types.Path) error {
	return nil
}

// Remove issues DELETE Object. Idempotent: a missing key still reports
// success rather than NotFound.
func (b *Backend) Remove(ctx context.Context, path types.Path) error {
	_, _, err := b.doRequest(ctx, "DELETE", "DeleteObject", path.Key(), nil, nil, nil)
	if errors.Is(err, errors.NotFound) {
		return nil
	}
	return err
}

// Copy issues a server-side COPY.
func (b *Backend) Copy(ctx context.Context, from, to types.Path) error {
	source := b.config.Bucket + "/" + from.Key()
	headers := map[string][]string{
		"x-amz-copy-source": {url.PathEscape(source)},
	}
	_, _, err := b.doRequest(ctx, "PUT", "CopyObject", to.Key(), nil, nil, headers)
	return err
}

// Link is unsupported on S3 — object stores have no hard links.
func (b *Backend) Link(ctx context.Context, from, to types.Path) error {
	return errors.New(errors.Unsupported, "link is not supported on the S3 backend").WithComponent("s3fs")
}

// List returns a lazy, paginated walk of keys with prefix path.Key(),
// prefetching one page ahead of the consumer with golang.org/x/sync/errgroup
// so the next ListObjectsV2 round-trip overlaps with the caller processing
// the current page instead of serializing fetch-then-yield-then-fetch.
func (b *Backend) List(ctx context.Context, path types.Path) func(yield func(types.DirEntry, error) bool) {
	prefix := path.Key()
	if prefix != "" {
		prefix += "/"
	}

	return func(yield func(types.DirEntry, error) bool) {
		pctx, cancel := context.WithCancel(ctx)
		defer cancel()

		type page struct {
			entries   []types.DirEntry
			truncated bool
		}
		pages := make(chan page)

		g, gctx := errgroup.WithContext(pctx)
		g.Go(func() error {
			defer close(pages)
			token := ""
			for {
				if err := gctx.Err(); err != nil {
					return err
				}
				entries, next, truncated, err := b.listPage(gctx, prefix, token)
				if err != nil {
					return err
				}
				select {
				case pages <- page{entries: entries, truncated: truncated}:
				case <-gctx.Done():
					return gctx.Err()
				}
				if !truncated {
					return nil
				}
				token = next
			}
		})

		stopped := false
		for pg := range pages {
			for _, entry := range pg.entries {
				if !yield(entry, nil) {
					stopped = true
					break
				}
			}
			if stopped {
				cancel()
				break
			}
		}

		if err := g.Wait(); err != nil && !stopped {
			yield(types.DirEntry{}, err)
		}
	}
}

func (b *Backend) listPage(ctx context.Context, prefix, token string) (entries []types.DirEntry, nextToken string, truncated bool, err error) {
	query := url.Values{}
	query.Set("list-type", "2")
	if prefix != "" {
		query.Set("prefix", prefix)
	}
	if token != "" {
		query.Set("continuation-token", token)
	}

	body, _, err := b.doRequest(ctx, "GET", "ListObjectsV2", "", query, nil, nil)
	if err != nil {
		return nil, "", false, err
	}

	var result listBucketResult
	if err := xml.Unmarshal(body, &result); err != nil {
		return nil, "", false, errors.New(errors.InvalidData, "malformed ListObjectsV2 response").
			WithComponent("s3fs").WithCause(err)
	}

	entries = make([]types.DirEntry, 0, len(result.Contents))
	for _, c := range result.Contents {
		p, perr := types.NewPath("/" + c.Key)
		if perr != nil {
			continue
		}
		entries = append(entries, types.DirEntry{Path: p, Size: c.Size, Kind: types.KindFile})
	}

	return entries, result.NextContinuationToken, result.IsTruncated, nil
}

// objectURL builds the request URL for key, honoring Config.Endpoint and
// Config.PathStyle.
func (b *Backend) objectURL(key string, query url.Values) string {
	var host, path string
	switch {
	case b.config.Endpoint != "":
		host = strings.TrimPrefix(strings.TrimPrefix(b.config.Endpoint, "https://"), "http://")
		if b.config.PathStyle {
			path = "/" + b.config.Bucket
			if key != "" {
				path += "/" + key
			}
		} else {
			host = b.config.Bucket + "." + host
			path = "/" + key
		}
	case b.config.PathStyle:
		host = fmt.Sprintf("s3.%s.amazonaws.com", b.config.Region)
		path = "/" + b.config.Bucket
		if key != "" {
			path += "/" + key
		}
	default:
		host = fmt.Sprintf("%s.s3.%s.amazonaws.com", b.config.Bucket, b.config.Region)
		path = "/" + key
	}

	scheme := "https"
	if strings.HasPrefix(b.config.Endpoint, "http://") {
		scheme = "http"
	}

	u := url.URL{Scheme: scheme, Host: host, Path: path}
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// doRequest signs and sends a request, retrying by status classification
// (2xx success, 3xx follow-once, 408/429/5xx retryable, other 4xx terminal).
// operation labels the Prometheus metric and log lines.
func (b *Backend) doRequest(ctx context.Context, method, operation, key string, query url.Values, body []byte, headers map[string][]string) ([]byte, map[string][]string, error) {
	start := time.Now()
	requestURL := b.objectURL(key, query)

	var respBody []byte
	var respHeaders map[string][]string

	attempt := func(ctx context.Context) error {
		if b.config.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, b.config.RequestTimeout)
			defer cancel()
		}

		req := &types.HttpRequest{Method: method, URL: requestURL, Headers: cloneHeaders(headers), Body: body}

		authorizer := awssig.New(b.currentCredential(), "s3", b.config.Region)
		if err := authorizer.Authorize(req); err != nil {
			return err
		}

		resp, err := b.httpClient.SendRequest(ctx, req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, rerr := io.ReadAll(resp.Body)
		if rerr != nil {
			return errors.New(errors.Transport, "failed to read response body").WithComponent("s3fs").
				WithOperation(operation).WithCause(rerr)
		}

		status := resp.StatusCode
		respHdrs := resp.Headers

		if status >= 300 && status < 400 {
			if location, ok := lookupHeader(respHdrs, "Location"); ok {
				req2 := &types.HttpRequest{Method: method, URL: location, Headers: cloneHeaders(headers), Body: body}
				authorizer2 := awssig.New(b.currentCredential(), "s3", b.config.Region)
				if err := authorizer2.Authorize(req2); err != nil {
					return err
				}
				resp2, err := b.httpClient.SendRequest(ctx, req2)
				if err != nil {
					return err
				}
				defer resp2.Body.Close()
				data2, rerr2 := io.ReadAll(resp2.Body)
				if rerr2 != nil {
					return errors.New(errors.Transport, "failed to read redirected response body").
						WithComponent("s3fs").WithOperation(operation).WithCause(rerr2)
				}
				status = resp2.StatusCode
				data = data2
				respHdrs = resp2.Headers
			}
		}

		if status >= 200 && status < 300 {
			respBody = data
			respHeaders = respHdrs
			return nil
		}

		if retry.ClassifyStatus(status) {
			if b.metrics != nil {
				b.metrics.recordRetry()
			}
			return errors.New(errors.Transport, fmt.Sprintf("s3 %s failed with status %d", operation, status)).
				WithComponent("s3fs").WithOperation(operation).WithContext("status", strconv.Itoa(status))
		}

		return translateStatus(status, data).WithComponent("s3fs").WithOperation(operation)
	}

	err := b.retryer.DoWithContext(ctx, attempt)
	if b.metrics != nil {
		b.metrics.observeRequest(operation, start, err)
	}
	return respBody, respHeaders, err
}

func translateStatus(status int, body []byte) *errors.FsError {
	kind := errors.Io
	switch status {
	case 404:
		kind = errors.NotFound
	case 403:
		kind = errors.PermissionDenied
	case 409:
		kind = errors.AlreadyExists
	}

	msg := fmt.Sprintf("s3 request failed with status %d", status)
	var parsed s3ErrorResponse
	if xml.Unmarshal(body, &parsed) == nil && parsed.Code != "" {
		msg = fmt.Sprintf("%s: %s", parsed.Code, parsed.Message)
	}

	return errors.New(kind, msg).WithContext("status", strconv.Itoa(status))
}

func cloneHeaders(headers map[string][]string) map[string][]string {
	if headers == nil {
		return map[string][]string{}
	}
	out := make(map[string][]string, len(headers))
	for k, v := range headers {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func lookupHeader(headers map[string][]string, name string) (string, bool) {
	for k, v := range headers {
		if strings.EqualFold(k, name) && len(v) > 0 {
			return v[0], true
		}
	}
	return "", false
}
