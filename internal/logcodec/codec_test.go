package logcodec

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objectfs/iofs/pkg/errors"
	"github.com/objectfs/iofs/pkg/types"
)

// memStream is a minimal types.Write + types.SeqRead over an in-memory
// buffer, standing in for a local or S3 file handle in these tests — the
// codec only ever needs the buffer-ownership contract, not a real backend.
type memStream struct {
	buf bytes.Buffer
}

func (m *memStream) WriteAll(ctx context.Context, buf types.IoBuf) (types.IoBuf, error) {
	m.buf.Write(buf.Bytes())
	return buf, nil
}

func (m *memStream) Flush(ctx context.Context) error { return nil }
func (m *memStream) Close(ctx context.Context) error { return nil }

func (m *memStream) Read(ctx context.Context, buf types.IoBufMut) (types.IoBufMut, error) {
	n, _ := m.buf.Read(buf.Slice())
	return buf.Resize(n), nil
}

func (m *memStream) ReadExact(ctx context.Context, buf types.IoBufMut) (types.IoBufMut, error) {
	n, err := m.buf.Read(buf.Slice())
	if n < buf.Cap() {
		return buf, errors.New(errors.UnexpectedEof, "truncated input").WithComponent("logcodec")
	}
	if err != nil {
		return buf, err
	}
	return buf.Resize(n), nil
}

func TestBytesS5Vector(t *testing.T) {
	ctx := context.Background()
	source := []byte("hello! Tonbo")

	stream := &memStream{}
	require.NoError(t, EncodeBytes(ctx, stream, source))

	encoded := stream.buf.Bytes()
	require.GreaterOrEqual(t, len(encoded), 4)
	assert.Equal(t, []byte{0x0C, 0x00, 0x00, 0x00}, encoded[:4])
	assert.Equal(t, SizeBytes(source), len(encoded))

	decoded, err := DecodeBytes(ctx, stream)
	require.NoError(t, err)
	assert.Equal(t, source, decoded)
}

func TestUintRoundTrip(t *testing.T) {
	ctx := context.Background()

	stream := &memStream{}
	require.NoError(t, EncodeUint8(ctx, stream, 0xAB))
	require.NoError(t, EncodeUint16(ctx, stream, 0x1234))
	require.NoError(t, EncodeUint32(ctx, stream, 0xDEADBEEF))
	require.NoError(t, EncodeUint64(ctx, stream, 0x0102030405060708))
	require.NoError(t, EncodeInt64(ctx, stream, -1))

	u8, err := DecodeUint8(ctx, stream)
	require.NoError(t, err)
	assert.EqualValues(t, 0xAB, u8)

	u16, err := DecodeUint16(ctx, stream)
	require.NoError(t, err)
	assert.EqualValues(t, 0x1234, u16)

	u32, err := DecodeUint32(ctx, stream)
	require.NoError(t, err)
	assert.EqualValues(t, 0xDEADBEEF, u32)

	u64, err := DecodeUint64(ctx, stream)
	require.NoError(t, err)
	assert.EqualValues(t, 0x0102030405060708, u64)

	i64, err := DecodeInt64(ctx, stream)
	require.NoError(t, err)
	assert.EqualValues(t, -1, i64)
}

func TestOptionRoundTrip(t *testing.T) {
	ctx := context.Background()

	present := &memStream{}
	value := uint32(42)
	require.NoError(t, EncodeOption(ctx, present, &value, EncodeUint32))
	got, err := DecodeOption(ctx, present, DecodeUint32)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.EqualValues(t, 42, *got)

	absent := &memStream{}
	require.NoError(t, EncodeOption[uint32](ctx, absent, nil, EncodeUint32))
	gotNil, err := DecodeOption(ctx, absent, DecodeUint32)
	require.NoError(t, err)
	assert.Nil(t, gotNil)
}

func TestOptionInvalidDiscriminant(t *testing.T) {
	ctx := context.Background()
	stream := &memStream{}
	stream.buf.WriteByte(2)

	_, err := DecodeOption(ctx, stream, DecodeUint32)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.InvalidData))
}

func TestSeqRoundTrip(t *testing.T) {
	ctx := context.Background()
	stream := &memStream{}

	items := [][]byte{[]byte("a"), []byte("bb"), []byte("ccc")}
	require.NoError(t, EncodeSeq(ctx, stream, items, EncodeBytes))

	decoded, err := DecodeSeq(ctx, stream, DecodeBytes)
	require.NoError(t, err)
	assert.Equal(t, items, decoded)
}

func TestVariantDiscriminant(t *testing.T) {
	ctx := context.Background()
	stream := &memStream{}

	require.NoError(t, EncodeDiscriminant(ctx, stream, 7))
	require.NoError(t, EncodeUint32(ctx, stream, 99))

	tag, err := DecodeDiscriminant(ctx, stream)
	require.NoError(t, err)
	require.EqualValues(t, 7, tag)

	switch tag {
	case 7:
		v, err := DecodeUint32(ctx, stream)
		require.NoError(t, err)
		assert.EqualValues(t, 99, v)
	default:
		t.Fatalf("unexpected discriminant %d", tag)
	}
}

func TestDecodeBytesTruncatedInput(t *testing.T) {
	ctx := context.Background()
	stream := &memStream{}
	require.NoError(t, EncodeUint32(ctx, stream, 10))
	stream.buf.WriteString("short")

	_, err := DecodeBytes(ctx, stream)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.UnexpectedEof))
}
