// Package logcodec implements length-prefixed, little-endian wire
// primitives: fixed-width integers, u32-length-prefixed byte strings,
// 1-byte-discriminant optionals, u32-count-prefixed sequences, and
// discriminant-tagged variants. Encode writes through a types.Write, Decode
// reads through a types.SeqRead, so the codec suspends exactly where the
// underlying backend does.
package logcodec
