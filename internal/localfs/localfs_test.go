package localfs

import (
	"context"
	"testing"

	"github.com/objectfs/iofs/pkg/errors"
	"github.com/objectfs/iofs/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenWriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	fs := New(t.TempDir())

	p, err := types.NewPath("a/b.txt")
	require.NoError(t, err)

	require.NoError(t, fs.CreateDirAll(ctx, mustParent(t, p)))

	wf, err := fs.OpenOptions(ctx, p, types.WriteOptions())
	require.NoError(t, err)

	buf, err := wf.WriteAll(ctx, types.NewIoBuf([]byte("abc")))
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), buf.Bytes())
	require.NoError(t, wf.Close(ctx))

	rf, err := fs.OpenOptions(ctx, p, types.ReadOptions())
	require.NoError(t, err)
	defer rf.Close(ctx)

	size, err := rf.Size(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, size)

	readBuf, err := rf.ReadExact(ctx, types.NewIoBufMut(3))
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), readBuf.Bytes())
}

func mustParent(t *testing.T, p types.Path) types.Path {
	t.Helper()
	parent, err := types.NewPath(p.Segments()[0])
	require.NoError(t, err)
	return parent
}

func TestOpenOptionsNotFoundWithoutCreate(t *testing.T) {
	ctx := context.Background()
	fs := New(t.TempDir())

	p, err := types.NewPath("missing.txt")
	require.NoError(t, err)

	_, err = fs.OpenOptions(ctx, p, types.ReadOptions())
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestReadExactShortReadIsUnexpectedEof(t *testing.T) {
	ctx := context.Background()
	fs := New(t.TempDir())

	p, err := types.NewPath("short.txt")
	require.NoError(t, err)

	wf, err := fs.OpenOptions(ctx, p, types.WriteOptions())
	require.NoError(t, err)
	_, err = wf.WriteAll(ctx, types.NewIoBuf([]byte("ab")))
	require.NoError(t, err)
	require.NoError(t, wf.Close(ctx))

	rf, err := fs.OpenOptions(ctx, p, types.ReadOptions())
	require.NoError(t, err)
	defer rf.Close(ctx)

	_, err = rf.ReadExact(ctx, types.NewIoBufMut(10))
	assert.True(t, errors.Is(err, errors.UnexpectedEof))
}

func TestReadToEofThenEmptyRead(t *testing.T) {
	ctx := context.Background()
	fs := New(t.TempDir())

	p, err := types.NewPath("eof.txt")
	require.NoError(t, err)

	wf, err := fs.OpenOptions(ctx, p, types.WriteOptions())
	require.NoError(t, err)
	_, err = wf.WriteAll(ctx, types.NewIoBuf([]byte("xy")))
	require.NoError(t, err)
	require.NoError(t, wf.Close(ctx))

	rf, err := fs.OpenOptions(ctx, p, types.ReadOptions())
	require.NoError(t, err)
	defer rf.Close(ctx)

	first, err := rf.Read(ctx, types.NewIoBufMut(2))
	require.NoError(t, err)
	assert.Equal(t, []byte("xy"), first.Bytes())

	second, err := rf.Read(ctx, types.NewIoBufMut(2))
	require.NoError(t, err)
	assert.Equal(t, 0, second.Len())
}

func TestOperationAfterCloseIsClosed(t *testing.T) {
	ctx := context.Background()
	fs := New(t.TempDir())

	p, err := types.NewPath("closed.txt")
	require.NoError(t, err)

	wf, err := fs.OpenOptions(ctx, p, types.WriteOptions())
	require.NoError(t, err)
	require.NoError(t, wf.Close(ctx))

	_, err = wf.WriteAll(ctx, types.NewIoBuf([]byte("x")))
	assert.True(t, errors.Is(err, errors.Closed))
}

func TestRemoveMissingIsNotFound(t *testing.T) {
	ctx := context.Background()
	fs := New(t.TempDir())

	p, err := types.NewPath("nope.txt")
	require.NoError(t, err)

	err = fs.Remove(ctx, p)
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestListLexicographic(t *testing.T) {
	ctx := context.Background()
	fs := New(t.TempDir())

	for _, name := range []string{"b.txt", "a.txt", "c.txt"} {
		p, err := types.NewPath(name)
		require.NoError(t, err)
		wf, err := fs.OpenOptions(ctx, p, types.WriteOptions())
		require.NoError(t, err)
		require.NoError(t, wf.Close(ctx))
	}

	var names []string
	for entry, err := range fs.List(ctx, types.RootPath) {
		require.NoError(t, err)
		names = append(names, entry.Path.Key())
	}

	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, names)
}

func TestCopyAndLink(t *testing.T) {
	ctx := context.Background()
	fs := New(t.TempDir())

	src, err := types.NewPath("src.txt")
	require.NoError(t, err)
	wf, err := fs.OpenOptions(ctx, src, types.WriteOptions())
	require.NoError(t, err)
	_, err = wf.WriteAll(ctx, types.NewIoBuf([]byte("data")))
	require.NoError(t, err)
	require.NoError(t, wf.Close(ctx))

	copyDst, err := types.NewPath("copy.txt")
	require.NoError(t, err)
	require.NoError(t, fs.Copy(ctx, src, copyDst))

	linkDst, err := types.NewPath("link.txt")
	require.NoError(t, err)
	require.NoError(t, fs.Link(ctx, src, linkDst))

	for _, p := range []types.Path{copyDst, linkDst} {
		rf, err := fs.OpenOptions(ctx, p, types.ReadOptions())
		require.NoError(t, err)
		buf, err := rf.ReadExact(ctx, types.NewIoBufMut(4))
		require.NoError(t, err)
		assert.Equal(t, []byte("data"), buf.Bytes())
		require.NoError(t, rf.Close(ctx))
	}
}
