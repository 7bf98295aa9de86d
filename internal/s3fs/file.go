package s3fs

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/objectfs/iofs/pkg/errors"
	"github.com/objectfs/iofs/pkg/types"
)

// S3File is the types.File handle OpenOptions returns. Reads are lazy: the
// object's existence and size are discovered on the first Size/Read/ReadAt
// call via HEAD. Writes buffer locally and flush to a multipart upload once
// the buffered size crosses the configured threshold; small writes fall
// through to a single PUT at Close.
type S3File struct {
	backend *Backend
	path    types.Path
	key     string
	opts    types.OpenOptions

	mu     sync.Mutex
	closed bool

	sizeKnown bool
	size      int64
	cursor    int64

	writeBuf  []byte
	multipart *multipartState
}

// multipartState tracks one in-flight multipart upload. Parts upload
// concurrently, bounded by the backend's configured concurrency, so
// completion order need not match part-number order; parts is sorted by
// PartNumber before CompleteMultipartUpload is issued.
type multipartState struct {
	uploadID string
	nextPart int

	group *errgroup.Group
	ctx   context.Context

	partsMu sync.Mutex
	parts   []completedPart
}

// WriteAll buffers buf and, once the buffer reaches the configured multipart
// threshold, uploads it as the next part. It never reports partial
// acceptance: either every byte of buf is absorbed or an error is returned.
func (f *S3File) WriteAll(ctx context.Context, buf types.IoBuf) (types.IoBuf, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return buf, errors.New(errors.Closed, "write on closed file").WithComponent("s3fs").WithOperation("write_all")
	}
	if !f.opts.Write {
		return buf, errors.New(errors.Unsupported, "file was not opened for writing").WithComponent("s3fs")
	}

	if f.multipart != nil {
		select {
		case <-f.multipart.ctx.Done():
			return buf, f.multipart.group.Wait()
		default:
		}
	}

	f.writeBuf = append(f.writeBuf, buf.Bytes()...)

	threshold := f.backend.config.multipartThreshold()
	for int64(len(f.writeBuf)) >= threshold {
		part := f.backend.bufferPool.Get()
		part = append(part, f.writeBuf[:threshold]...)

		remaining := f.backend.bufferPool.Get()
		remaining = append(remaining, f.writeBuf[threshold:]...)
		f.writeBuf = remaining

		if err := f.dispatchPartLocked(ctx, part); err != nil {
			return buf, err
		}
	}

	return buf, nil
}

// Flush is a no-op beyond the part-boundary flushing WriteAll already does;
// S3 has no weaker durability tier between "uploaded as a part" and
// "buffered locally" to make visible here.
func (f *S3File) Flush(ctx context.Context) error {
	return nil
}

// Close commits the write: completing the in-flight multipart upload, or
// issuing a single PutObject if the threshold was never crossed. A failure
// partway through a multipart upload triggers a best-effort abort.
func (f *S3File) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return errors.New(errors.Closed, "file already closed").WithComponent("s3fs").WithOperation("close")
	}
	f.closed = true

	if !f.opts.Write {
		return nil
	}

	if f.multipart != nil {
		if len(f.writeBuf) > 0 {
			part := append(f.backend.bufferPool.Get(), f.writeBuf...)
			if err := f.dispatchPartLocked(ctx, part); err != nil {
				f.backend.abortMultipartUpload(ctx, f.key, f.multipart.uploadID)
				if f.backend.metrics != nil {
					f.backend.metrics.recordMultipartAbort()
				}
				return err
			}
			f.writeBuf = nil
		}

		if err := f.multipart.group.Wait(); err != nil {
			f.backend.abortMultipartUpload(ctx, f.key, f.multipart.uploadID)
			if f.backend.metrics != nil {
				f.backend.metrics.recordMultipartAbort()
			}
			return err
		}

		sort.Slice(f.multipart.parts, func(i, j int) bool {
			return f.multipart.parts[i].PartNumber < f.multipart.parts[j].PartNumber
		})
		if err := f.backend.completeMultipartUpload(ctx, f.key, f.multipart.uploadID, f.multipart.parts); err != nil {
			f.backend.abortMultipartUpload(ctx, f.key, f.multipart.uploadID)
			if f.backend.metrics != nil {
				f.backend.metrics.recordMultipartAbort()
			}
			return err
		}
		if f.backend.metrics != nil {
			f.backend.metrics.sampleBufferPool(f.backend.bufferPool)
		}
		return nil
	}

	_, _, err := f.backend.doRequest(ctx, "PUT", "PutObject", f.key, nil, f.writeBuf, nil)
	if err == nil && f.backend.metrics != nil {
		f.backend.metrics.recordUpload(len(f.writeBuf))
	}
	return err
}

// dispatchPartLocked assumes f.mu is already held by the caller. It starts
// the multipart upload on the first call, then launches data's upload on the
// backend's bounded worker pool and returns without waiting for it to
// finish; a failed part surfaces later from multipart.group.Wait(), not from
// this call. data is returned to the buffer pool once its upload completes.
func (f *S3File) dispatchPartLocked(ctx context.Context, data []byte) error {
	if f.multipart == nil {
		uploadID, err := f.backend.createMultipartUpload(ctx, f.key)
		if err != nil {
			f.backend.bufferPool.Put(data)
			return err
		}
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(f.backend.config.multipartConcurrency())
		f.multipart = &multipartState{uploadID: uploadID, group: group, ctx: groupCtx}
		if f.backend.metrics != nil {
			f.backend.metrics.recordMultipartStart()
		}
	}

	f.multipart.nextPart++
	partNumber := f.multipart.nextPart
	m := f.multipart

	m.group.Go(func() error {
		defer f.backend.bufferPool.Put(data)

		etag, err := f.backend.uploadPart(m.ctx, f.key, m.uploadID, partNumber, data)
		if err != nil {
			return err
		}
		m.partsMu.Lock()
		m.parts = append(m.parts, completedPart{PartNumber: partNumber, ETag: etag})
		m.partsMu.Unlock()
		if f.backend.metrics != nil {
			f.backend.metrics.recordMultipartPart()
		}
		return nil
	})

	return nil
}

// Size issues a HEAD request on first call and caches the result, so opening
// a file for reading never itself touches the network.
func (f *S3File) Size(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sizeLocked(ctx)
}

func (f *S3File) sizeLocked(ctx context.Context) (int64, error) {
	if f.sizeKnown {
		return f.size, nil
	}
	_, headers, err := f.backend.doRequest(ctx, "HEAD", "HeadObject", f.key, nil, nil, nil)
	if err != nil {
		return 0, err
	}
	length, _ := lookupHeader(headers, "Content-Length")
	var size int64
	_, _ = fmt.Sscanf(length, "%d", &size)
	f.size = size
	f.sizeKnown = true
	return f.size, nil
}

// ReadAt issues a ranged GET for buf.Cap() bytes starting at offset, safe for
// concurrent callers since it never touches the sequential cursor. An offset
// at or past the object size (from the cached HEAD) returns a zero-length
// read without issuing a GET; a 416 response is not special-cased and
// surfaces as an error.
func (f *S3File) ReadAt(ctx context.Context, buf types.IoBufMut, offset int64) (types.IoBufMut, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return buf, errors.New(errors.Closed, "read on closed file").WithComponent("s3fs").WithOperation("read_at")
	}

	length := buf.Cap()
	if length == 0 {
		return buf.Resize(0), nil
	}

	size, err := f.sizeLocked(ctx)
	if err != nil {
		return buf, err
	}
	if offset >= size {
		return buf.Resize(0), nil
	}

	end := offset + int64(length) - 1
	if end > size-1 {
		end = size - 1
	}
	headers := map[string][]string{
		"Range": {fmt.Sprintf("bytes=%d-%d", offset, end)},
	}

	data, _, err := f.backend.doRequest(ctx, "GET", "GetObject", f.key, nil, nil, headers)
	if err != nil {
		return buf, err
	}
	if f.backend.metrics != nil {
		f.backend.metrics.recordDownload(len(data))
	}

	n := copy(buf.Slice(), data)
	return buf.Resize(n), nil
}

// Read fills buf from the sequential cursor, advancing it by the number of
// bytes actually read.
func (f *S3File) Read(ctx context.Context, buf types.IoBufMut) (types.IoBufMut, error) {
	f.mu.Lock()
	cursor := f.cursor
	f.mu.Unlock()

	result, err := f.ReadAt(ctx, buf, cursor)
	if err != nil {
		return result, err
	}

	f.mu.Lock()
	f.cursor += int64(result.Len())
	f.mu.Unlock()
	return result, nil
}

// ReadExact reads until buf is filled to capacity, failing with
// UnexpectedEof if the object runs out first.
func (f *S3File) ReadExact(ctx context.Context, buf types.IoBufMut) (types.IoBufMut, error) {
	want := buf.Cap()
	filled := 0

	for filled < want {
		chunk := types.NewIoBufMut(want - filled)
		result, err := f.Read(ctx, chunk)
		if err != nil {
			return buf, err
		}
		if result.Len() == 0 {
			return buf, errors.New(errors.UnexpectedEof, "object ended before buffer was filled").
				WithComponent("s3fs").WithOperation("read_exact")
		}
		copy(buf.Slice()[filled:], result.Bytes())
		filled += result.Len()
	}

	return buf.Resize(filled), nil
}
