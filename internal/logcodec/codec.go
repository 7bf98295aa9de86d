package logcodec

import (
	"context"
	"encoding/binary"

	"github.com/objectfs/iofs/pkg/errors"
	"github.com/objectfs/iofs/pkg/types"
)

// EncodeUint8 writes a single byte.
func EncodeUint8(ctx context.Context, w types.Write, v uint8) error {
	_, err := w.WriteAll(ctx, types.NewIoBuf([]byte{v}))
	return err
}

// DecodeUint8 reads a single byte.
func DecodeUint8(ctx context.Context, r types.SeqRead) (uint8, error) {
	buf, err := r.ReadExact(ctx, types.NewIoBufMut(1))
	if err != nil {
		return 0, err
	}
	return buf.Bytes()[0], nil
}

// EncodeUint16 writes v as 2 little-endian bytes.
func EncodeUint16(ctx context.Context, w types.Write, v uint16) error {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, v)
	_, err := w.WriteAll(ctx, types.NewIoBuf(buf))
	return err
}

// DecodeUint16 reads 2 little-endian bytes.
func DecodeUint16(ctx context.Context, r types.SeqRead) (uint16, error) {
	buf, err := r.ReadExact(ctx, types.NewIoBufMut(2))
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf.Bytes()), nil
}

// EncodeUint32 writes v as 4 little-endian bytes.
func EncodeUint32(ctx context.Context, w types.Write, v uint32) error {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)
	_, err := w.WriteAll(ctx, types.NewIoBuf(buf))
	return err
}

// DecodeUint32 reads 4 little-endian bytes.
func DecodeUint32(ctx context.Context, r types.SeqRead) (uint32, error) {
	buf, err := r.ReadExact(ctx, types.NewIoBufMut(4))
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf.Bytes()), nil
}

// EncodeUint64 writes v as 8 little-endian bytes.
func EncodeUint64(ctx context.Context, w types.Write, v uint64) error {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	_, err := w.WriteAll(ctx, types.NewIoBuf(buf))
	return err
}

// DecodeUint64 reads 8 little-endian bytes.
func DecodeUint64(ctx context.Context, r types.SeqRead) (uint64, error) {
	buf, err := r.ReadExact(ctx, types.NewIoBufMut(8))
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf.Bytes()), nil
}

// EncodeInt64 writes v as 8 little-endian bytes, two's complement.
func EncodeInt64(ctx context.Context, w types.Write, v int64) error {
	return EncodeUint64(ctx, w, uint64(v))
}

// DecodeInt64 reads 8 little-endian bytes as a two's-complement int64.
func DecodeInt64(ctx context.Context, r types.SeqRead) (int64, error) {
	v, err := DecodeUint64(ctx, r)
	return int64(v), err
}

// SizeBytes returns the exact wire size EncodeBytes will produce for data:
// a 4-byte length prefix plus the data itself.
func SizeBytes(data []byte) int {
	return 4 + len(data)
}

// EncodeBytes writes a u32 length prefix followed by data, in a single
// WriteAll so a borrowed backend sees one buffer instead of two.
func EncodeBytes(ctx context.Context, w types.Write, data []byte) error {
	buf := make([]byte, SizeBytes(data))
	binary.LittleEndian.PutUint32(buf[:4], uint32(len(data)))
	copy(buf[4:], data)
	_, err := w.WriteAll(ctx, types.NewIoBuf(buf))
	return err
}

// DecodeBytes reads a u32 length prefix, then exactly that many bytes.
func DecodeBytes(ctx context.Context, r types.SeqRead) ([]byte, error) {
	n, err := DecodeUint32(ctx, r)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return []byte{}, nil
	}
	buf, err := r.ReadExact(ctx, types.NewIoBufMut(int(n)))
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), buf.Bytes()...), nil
}

// EncodeOption writes the 1-byte present/absent discriminant followed by the
// encoded value when v is non-nil.
func EncodeOption[T any](ctx context.Context, w types.Write, v *T, encode func(context.Context, types.Write, T) error) error {
	if v == nil {
		return EncodeUint8(ctx, w, 0)
	}
	if err := EncodeUint8(ctx, w, 1); err != nil {
		return err
	}
	return encode(ctx, w, *v)
}

// DecodeOption reads the discriminant and, if present, decodes the value.
// Any discriminant other than 0 or 1 fails with InvalidData.
func DecodeOption[T any](ctx context.Context, r types.SeqRead, decode func(context.Context, types.SeqRead) (T, error)) (*T, error) {
	tag, err := DecodeUint8(ctx, r)
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0:
		return nil, nil
	case 1:
		v, err := decode(ctx, r)
		if err != nil {
			return nil, err
		}
		return &v, nil
	default:
		return nil, errors.New(errors.InvalidData, "invalid optional discriminant").WithComponent("logcodec")
	}
}

// EncodeSeq writes a u32 count followed by each element in order.
func EncodeSeq[T any](ctx context.Context, w types.Write, items []T, encode func(context.Context, types.Write, T) error) error {
	if err := EncodeUint32(ctx, w, uint32(len(items))); err != nil {
		return err
	}
	for _, item := range items {
		if err := encode(ctx, w, item); err != nil {
			return err
		}
	}
	return nil
}

// DecodeSeq reads a u32 count, then decodes that many elements.
func DecodeSeq[T any](ctx context.Context, r types.SeqRead, decode func(context.Context, types.SeqRead) (T, error)) ([]T, error) {
	n, err := DecodeUint32(ctx, r)
	if err != nil {
		return nil, err
	}
	items := make([]T, 0, n)
	for i := uint32(0); i < n; i++ {
		v, err := decode(ctx, r)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, nil
}

// EncodeDiscriminant writes a 1-byte variant tag; the caller is responsible
// for then encoding that arm's payload.
func EncodeDiscriminant(ctx context.Context, w types.Write, tag uint8) error {
	return EncodeUint8(ctx, w, tag)
}

// DecodeDiscriminant reads a 1-byte variant tag; the caller dispatches on it
// and must fail with InvalidData itself for a tag it does not recognize.
func DecodeDiscriminant(ctx context.Context, r types.SeqRead) (uint8, error) {
	return DecodeUint8(ctx, r)
}
