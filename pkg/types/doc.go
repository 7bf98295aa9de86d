/*
Package types provides the core interfaces, data structures, and type
definitions shared across iofs: the local adapter, the S3 backend, and the
SigV4 authorizer all build on the same Path, OpenOptions, buffer, and
capability-interface vocabulary defined here.

# Architecture overview

	┌─────────────────────────────────────────────┐
	│              Fs consumers                    │
	│   (log codec, higher-level storage engines)  │
	└─────────────────────────────────────────────┘
	                      │
	┌─────────────────────────────────────────────┐
	│                 types.Fs                     │
	└─────────────────────────────────────────────┘
	          │                         │
	┌─────────┴───────┐       ┌─────────┴─────────┐
	│ internal/localfs │       │  internal/s3fs    │
	│  (host syscalls)  │       │ (HTTP + SigV4)    │
	└───────────────────┘       └───────────────────┘

# Buffer ownership

Every read and write primitive (types.Read, types.Write, types.SeqRead) takes
ownership of a caller-supplied IoBuf or IoBufMut and returns it alongside the
result. This is what lets internal/s3fs buffer writes across a multipart part
boundary and internal/localfs bridge to blocking os calls through the same
interface shape.

# Path

Path is an immutable, normalized, slash-separated sequence of segments. It
never carries "." or ".." after construction and never applies
percent-encoding — that belongs to whichever transport renders it (the S3
backend's canonical URI construction, for instance).
*/
package types
