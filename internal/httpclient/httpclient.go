// Package httpclient implements types.HttpClient, the runtime-neutral façade
// the S3 backend sends signed requests through. It is a thin wrapper over
// *http.Client — the SigV4-signed request is already fully formed by the
// time it arrives here, so this layer's only jobs are translating
// types.HttpRequest/HttpResponse and wrapping transport failures as a single
// Transport-kind error.
package httpclient

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/objectfs/iofs/pkg/errors"
	"github.com/objectfs/iofs/pkg/types"
)

// Client implements types.HttpClient over net/http.
type Client struct {
	httpClient *http.Client
}

// New returns a Client with the given request timeout. A timeout of zero
// uses net/http's default (no timeout).
func New(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NewWithHTTPClient wraps an existing *http.Client, for callers that need a
// custom Transport (connection pooling, TLS config, a test double).
func NewWithHTTPClient(httpClient *http.Client) *Client {
	return &Client{httpClient: httpClient}
}

// SendRequest submits req and returns the response. It does not mutate req
// beyond what http.NewRequestWithContext itself requires.
func (c *Client) SendRequest(ctx context.Context, req *types.HttpRequest) (*types.HttpResponse, error) {
	var body *bytes.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	} else {
		body = bytes.NewReader(nil)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, errors.New(errors.Transport, "failed to construct request").
			WithComponent("httpclient").WithCause(err)
	}

	for name, values := range req.Headers {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.New(errors.Transport, "request failed").
			WithComponent("httpclient").WithOperation(req.Method).WithCause(err)
	}

	return &types.HttpResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       resp.Body,
	}, nil
}
