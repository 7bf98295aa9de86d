// Package localfs implements types.Fs over the host filesystem. Go has one
// execution model, so there is no cooperative runtime here that needs a
// dedicated blocking-pool bounce: every call reaches the os package directly
// from whatever goroutine the caller is on. The (status, buffer) shape is
// kept anyway so File satisfies the same types.File interface the S3 backend
// does.
package localfs

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"

	"github.com/objectfs/iofs/pkg/errors"
	"github.com/objectfs/iofs/pkg/types"
)

// Fs implements types.Fs rooted at a host directory.
type Fs struct {
	root string
}

// New returns an Fs rooted at root. root must already exist.
func New(root string) *Fs {
	return &Fs{root: root}
}

func (f *Fs) hostPath(p types.Path) string {
	return filepath.Join(f.root, filepath.FromSlash(p.Key()))
}

// OpenOptions materializes a File over the host path corresponding to path.
func (f *Fs) OpenOptions(ctx context.Context, path types.Path, opts types.OpenOptions) (types.File, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	flag := 0
	switch {
	case opts.Read && opts.Write:
		flag = os.O_RDWR
	case opts.Write:
		flag = os.O_WRONLY
	default:
		flag = os.O_RDONLY
	}
	if opts.Create {
		flag |= os.O_CREATE
	}
	if opts.Truncate && opts.Write {
		flag |= os.O_TRUNC
	}

	hp := f.hostPath(path)
	fd, err := os.OpenFile(hp, flag, 0644)
	if err != nil {
		return nil, translateErr(err, "OpenOptions").WithContext("path", path.String())
	}

	return &File{fd: fd, path: path}, nil
}

// CreateDirAll creates path and all missing ancestors, idempotently.
func (f *Fs) CreateDirAll(ctx context.Context, path types.Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(f.hostPath(path), 0755); err != nil {
		return translateErr(err, "CreateDirAll").WithContext("path", path.String())
	}
	return nil
}

// List returns a lazy sequence of entries directly under path. The host
// filesystem has no natural pagination boundary, so every entry is read in
// one os.ReadDir call and then walked lazily through the iterator — callers
// still see the same incremental, stoppable shape the S3 backend exposes.
func (f *Fs) List(ctx context.Context, path types.Path) func(yield func(types.DirEntry, error) bool) {
	return func(yield func(types.DirEntry, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(types.DirEntry{}, err)
			return
		}

		entries, err := os.ReadDir(f.hostPath(path))
		if err != nil {
			yield(types.DirEntry{}, translateErr(err, "List").WithContext("path", path.String()))
			return
		}

		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				if !yield(types.DirEntry{}, err) {
					return
				}
				continue
			}

			childPath, err := path.Child(entry.Name())
			if err != nil {
				if !yield(types.DirEntry{}, err) {
					return
				}
				continue
			}

			info, err := entry.Info()
			if err != nil {
				if !yield(types.DirEntry{}, translateErr(err, "List")) {
					return
				}
				continue
			}

			kind := types.KindFile
			if info.IsDir() {
				kind = types.KindDir
			}

			if !yield(types.DirEntry{Path: childPath, Size: info.Size(), Kind: kind}, nil) {
				return
			}
		}
	}
}

// Remove deletes path. A missing path yields NotFound.
func (f *Fs) Remove(ctx context.Context, path types.Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(f.hostPath(path)); err != nil {
		return translateErr(err, "Remove").WithContext("path", path.String())
	}
	return nil
}

// Copy duplicates the bytes at from to to via a streamed read/write.
func (f *Fs) Copy(ctx context.Context, from, to types.Path) error {
	src, err := os.Open(f.hostPath(from))
	if err != nil {
		return translateErr(err, "Copy").WithContext("from", from.String())
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(f.hostPath(to)), 0755); err != nil {
		return translateErr(err, "Copy").WithContext("to", to.String())
	}

	dst, err := os.OpenFile(f.hostPath(to), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return translateErr(err, "Copy").WithContext("to", to.String())
	}
	defer dst.Close()

	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return translateErr(werr, "Copy")
			}
		}
		if rerr != nil {
			if stderrors.Is(rerr, io.EOF) {
				return nil
			}
			return translateErr(rerr, "Copy")
		}
	}
}

// Link hard-links from to to. Available on local; S3 reports this as
// Unsupported.
func (f *Fs) Link(ctx context.Context, from, to types.Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Link(f.hostPath(from), f.hostPath(to)); err != nil {
		return translateErr(err, "Link").WithContext("from", from.String()).WithContext("to", to.String())
	}
	return nil
}

func translateErr(err error, operation string) *errors.FsError {
	var kind errors.Kind
	switch {
	case os.IsNotExist(err):
		kind = errors.NotFound
	case os.IsExist(err):
		kind = errors.AlreadyExists
	case os.IsPermission(err):
		kind = errors.PermissionDenied
	default:
		kind = errors.Io
	}
	return errors.New(kind, err.Error()).WithComponent("localfs").WithOperation(operation).WithCause(err)
}
