package adapter

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objectfs/iofs/internal/config"
)

func TestParseStorageURI(t *testing.T) {
	tests := []struct {
		name       string
		uri        string
		wantScheme string
		wantBucket string
		wantPrefix string
	}{
		{name: "bare local path", uri: "/var/data", wantScheme: "", wantBucket: "", wantPrefix: "/var/data"},
		{name: "s3 bucket only", uri: "s3://my-bucket", wantScheme: "s3", wantBucket: "my-bucket", wantPrefix: ""},
		{name: "s3 with prefix", uri: "s3://my-bucket/a/b", wantScheme: "s3", wantBucket: "my-bucket", wantPrefix: "a/b"},
		{name: "s3 bucket with dots", uri: "s3://my.bucket.with.dots", wantScheme: "s3", wantBucket: "my.bucket.with.dots", wantPrefix: ""},
		{name: "file scheme", uri: "file:///tmp/data", wantScheme: "file", wantBucket: "", wantPrefix: "tmp/data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scheme, bucket, prefix, err := parseStorageURI(tt.uri)
			require.NoError(t, err)
			assert.Equal(t, tt.wantScheme, scheme)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantPrefix, prefix)
		})
	}
}

func testConfig() *config.Configuration {
	cfg := config.NewDefault()
	cfg.Backend.Kind = "s3"
	cfg.S3.Bucket = "test-bucket"
	return cfg
}

func TestNewLocalBackend(t *testing.T) {
	fsys, err := New(context.Background(), t.TempDir(), config.NewDefault())
	require.NoError(t, err)
	assert.NotNil(t, fsys)
}

func TestNewUnsupportedScheme(t *testing.T) {
	_, err := New(context.Background(), "gcs://bucket", testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported storage scheme")
}

func TestNewS3MissingBucketFallsBackToConfig(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "AKID")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "SECRET")

	fsys, err := New(context.Background(), "s3://", testConfig())
	require.NoError(t, err)
	assert.NotNil(t, fsys)
}

func TestNewS3NoBucketAnywhereFails(t *testing.T) {
	cfg := testConfig()
	cfg.S3.Bucket = ""
	_, err := New(context.Background(), "s3://", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3.bucket")
}

func TestNewS3MissingCredentialsFails(t *testing.T) {
	os.Unsetenv("AWS_ACCESS_KEY_ID")
	os.Unsetenv("AWS_SECRET_ACCESS_KEY")

	_, err := New(context.Background(), "s3://test-bucket", testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AWS_ACCESS_KEY_ID")
}

func TestNewInvalidConfiguration(t *testing.T) {
	cfg := testConfig()
	cfg.Retry.MaxAttempts = 0

	_, err := New(context.Background(), "s3://test-bucket", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestResolveCredentialFromEnv(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "AKID")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "SECRET")
	t.Setenv("AWS_SESSION_TOKEN", "TOKEN")

	cfg := testConfig()
	credential, err := resolveCredential(context.Background(), nil, cfg)
	require.NoError(t, err)
	assert.Equal(t, "AKID", credential.KeyID)
	assert.Equal(t, "SECRET", credential.SecretKey)
	assert.Equal(t, "TOKEN", credential.Token)
}
