package localfs

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"sync"

	"github.com/objectfs/iofs/pkg/errors"
	"github.com/objectfs/iofs/pkg/types"
)

// File implements types.File over an *os.File. The sequential cursor lives
// in the os.File itself; ReadAt uses pread semantics and never disturbs it.
type File struct {
	mu     sync.Mutex
	fd     *os.File
	path   types.Path
	closed bool
}

func (f *File) checkOpen() error {
	if f.closed {
		return errors.New(errors.Closed, "operation on closed file handle").
			WithComponent("localfs").WithContext("path", f.path.String())
	}
	return nil
}

// Read fills up to buf.Cap() bytes from the sequential cursor.
func (f *File) Read(ctx context.Context, buf types.IoBufMut) (types.IoBufMut, error) {
	if err := f.checkOpen(); err != nil {
		return buf, err
	}
	if buf.Cap() == 0 {
		return buf, nil
	}

	n, err := f.fd.Read(buf.Slice())
	if err != nil && !stderrors.Is(err, io.EOF) {
		return buf, errors.New(errors.Io, err.Error()).WithComponent("localfs").WithOperation("Read").WithCause(err)
	}
	return buf.Resize(n), nil
}

// ReadExact fills buf to capacity or fails with UnexpectedEof.
func (f *File) ReadExact(ctx context.Context, buf types.IoBufMut) (types.IoBufMut, error) {
	if err := f.checkOpen(); err != nil {
		return buf, err
	}

	n, err := io.ReadFull(f.fd, buf.Slice())
	if err != nil {
		if stderrors.Is(err, io.ErrUnexpectedEOF) || stderrors.Is(err, io.EOF) {
			return buf.Resize(n), errors.New(errors.UnexpectedEof, "short read").
				WithComponent("localfs").WithOperation("ReadExact").WithCause(err)
		}
		return buf.Resize(n), errors.New(errors.Io, err.Error()).WithComponent("localfs").WithOperation("ReadExact").WithCause(err)
	}
	return buf.Resize(n), nil
}

// ReadAt issues a positional read that never touches the sequential cursor,
// safe for concurrent callers on the same handle.
func (f *File) ReadAt(ctx context.Context, buf types.IoBufMut, offset int64) (types.IoBufMut, error) {
	if err := f.checkOpen(); err != nil {
		return buf, err
	}

	n, err := f.fd.ReadAt(buf.Slice(), offset)
	if err != nil && !stderrors.Is(err, io.EOF) {
		return buf, errors.New(errors.Io, err.Error()).WithComponent("localfs").WithOperation("ReadAt").WithCause(err)
	}
	return buf.Resize(n), nil
}

// Size returns the current file size.
func (f *File) Size(ctx context.Context) (int64, error) {
	if err := f.checkOpen(); err != nil {
		return 0, err
	}
	info, err := f.fd.Stat()
	if err != nil {
		return 0, errors.New(errors.Io, err.Error()).WithComponent("localfs").WithOperation("Size").WithCause(err)
	}
	return info.Size(), nil
}

// WriteAll writes every byte of buf or returns an error and the buffer
// intact. A short underlying write is retried within the call — it is never
// reported as partial success to the caller.
func (f *File) WriteAll(ctx context.Context, buf types.IoBuf) (types.IoBuf, error) {
	if err := f.checkOpen(); err != nil {
		return buf, err
	}

	data := buf.Bytes()
	written := 0
	for written < len(data) {
		n, err := f.fd.Write(data[written:])
		written += n
		if err != nil {
			return buf, errors.New(errors.Io, err.Error()).WithComponent("localfs").WithOperation("WriteAll").WithCause(err)
		}
	}
	return buf, nil
}

// Flush syncs the file to durable storage.
func (f *File) Flush(ctx context.Context) error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	if err := f.fd.Sync(); err != nil {
		return errors.New(errors.Io, err.Error()).WithComponent("localfs").WithOperation("Flush").WithCause(err)
	}
	return nil
}

// Close releases the handle. Any operation after Close returns Closed.
func (f *File) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkOpen(); err != nil {
		return err
	}
	f.closed = true
	if err := f.fd.Close(); err != nil {
		return errors.New(errors.Io, err.Error()).WithComponent("localfs").WithOperation("Close").WithCause(err)
	}
	return nil
}
