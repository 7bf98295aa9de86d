// Package localfs is the local-disk implementation of types.Fs: it bridges
// every VFS operation to the corresponding os package call, honoring the
// (status, buffer) shape shared with internal/s3fs.
package localfs
