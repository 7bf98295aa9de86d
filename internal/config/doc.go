/*
Package config provides configuration loading for iofs: backend selection
(local vs. S3), S3 connection settings, retry tuning, and log level, sourced
from defaults, an optional YAML file, and environment variables in that
order of increasing precedence.

# Configuration hierarchy

	┌─────────────────────────────────────────────┐
	│      Environment variables (OBJECTFS_*,      │ ← highest priority
	│              AWS_REGION, AWS_ENDPOINT)       │
	└─────────────────────────────────────────────┘
	                      │
	┌─────────────────────────────────────────────┐
	│              YAML config file                │
	└─────────────────────────────────────────────┘
	                      │
	┌─────────────────────────────────────────────┐
	│               NewDefault()                   │ ← lowest priority
	└─────────────────────────────────────────────┘

Credential material (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY,
AWS_SESSION_TOKEN) is deliberately not modeled here — internal/adapter reads
those directly so they never pass through a struct that SaveToFile could
serialize to disk.
*/
package config
