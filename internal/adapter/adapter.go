// Package adapter builds a types.Fs from a storage URI and a
// config.Configuration: validate the configuration, parse the URI, then
// construct the selected backend. It never owns a cache, write buffer, or
// FUSE mount — those are left to external collaborators — so New returns a
// ready-to-use types.Fs instead of a started subsystem.
package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/objectfs/iofs/internal/awssig"
	"github.com/objectfs/iofs/internal/config"
	"github.com/objectfs/iofs/internal/httpclient"
	"github.com/objectfs/iofs/internal/localfs"
	"github.com/objectfs/iofs/internal/s3fs"
	"github.com/objectfs/iofs/pkg/retry"
	"github.com/objectfs/iofs/pkg/types"
)

// New constructs a types.Fs for storageURI ("/local/path", "file:///...", or
// "s3://bucket/prefix") per cfg's S3 connection and retry settings, resolving
// credentials from AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY/AWS_SESSION_TOKEN
// when cfg.S3.CredentialsSource is "env", or from instance metadata
// (EC2_METADATA_ENDPOINT, default http://169.254.169.254) when it is
// "instance".
func New(ctx context.Context, storageURI string, cfg *config.Configuration) (types.Fs, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	scheme, bucket, prefix, err := parseStorageURI(storageURI)
	if err != nil {
		return nil, err
	}

	switch scheme {
	case "", "file":
		root := prefix
		if scheme == "file" {
			root = "/" + prefix
		}
		if root == "" {
			root = storageURI
		}
		slog.Default().With("component", "adapter").Info("using local backend", "root", root)
		return localfs.New(root), nil

	case "s3":
		if bucket == "" {
			bucket = cfg.S3.Bucket
		}
		if bucket == "" {
			return nil, fmt.Errorf("s3 storage URI must include a bucket name")
		}
		return newS3Backend(ctx, bucket, cfg)

	default:
		return nil, fmt.Errorf("unsupported storage scheme: %s", scheme)
	}
}

func newS3Backend(ctx context.Context, bucket string, cfg *config.Configuration) (types.Fs, error) {
	region := cfg.S3.Region
	if val := os.Getenv("AWS_REGION"); val != "" {
		region = val
	}
	endpoint := cfg.S3.Endpoint
	if val := os.Getenv("AWS_ENDPOINT"); val != "" {
		endpoint = val
	}

	httpClient := httpclient.New(cfg.S3.RequestTimeout)

	credential, err := resolveCredential(ctx, httpClient, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve AWS credentials: %w", err)
	}

	s3cfg := s3fs.Config{
		Bucket:             bucket,
		Region:             region,
		Endpoint:           endpoint,
		PathStyle:          cfg.S3.PathStyle,
		MultipartThreshold: int64(cfg.S3.MultipartPartMB) * 1024 * 1024,
		RequestTimeout:     cfg.S3.RequestTimeout,
	}

	backend := s3fs.NewBackend(httpClient, credential, s3cfg)
	backend.WithRetryer(retry.New(retry.Config{
		MaxAttempts:  cfg.Retry.MaxAttempts,
		InitialDelay: cfg.Retry.InitialDelay,
		MaxDelay:     cfg.Retry.MaxDelay,
		Jitter:       cfg.Retry.Jitter,
	}))

	return backend, nil
}

// resolveCredential follows cfg.S3.CredentialsSource: "static" is rejected
// (no Configuration field carries a literal secret, so one can never be
// inviting into YAML), "instance" talks to the instance metadata service,
// and anything else (including the default "env") reads
// AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY/AWS_SESSION_TOKEN.
func resolveCredential(ctx context.Context, httpClient types.HttpClient, cfg *config.Configuration) (*types.AwsCredential, error) {
	switch cfg.S3.CredentialsSource {
	case "static":
		return nil, fmt.Errorf("credentials_source=%q is not supported: no configuration field carries a static secret", cfg.S3.CredentialsSource)

	case "instance":
		endpoint := os.Getenv("EC2_METADATA_ENDPOINT")
		if endpoint == "" {
			endpoint = "http://169.254.169.254"
		}
		token, err := awssig.InstanceCreds(ctx, httpClient, endpoint, true)
		if err != nil {
			return nil, err
		}
		return token.Token, nil

	default:
		credential := &types.AwsCredential{
			KeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			Token:     os.Getenv("AWS_SESSION_TOKEN"),
		}
		if credential.KeyID == "" || credential.SecretKey == "" {
			return nil, fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set for credentials_source=%q", cfg.S3.CredentialsSource)
		}
		return credential, nil
	}
}

// parseStorageURI splits a storage URI into scheme, bucket (S3 host), and
// path/prefix. A bare filesystem path (no "://") is returned as scheme "".
func parseStorageURI(storageURI string) (scheme, bucket, prefix string, err error) {
	if !strings.Contains(storageURI, "://") {
		return "", "", storageURI, nil
	}
	u, err := url.Parse(storageURI)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to parse storage URI: %w", err)
	}
	return u.Scheme, u.Host, strings.TrimPrefix(u.Path, "/"), nil
}
