// Package varint provides the unsigned LEB128 integers used as length
// prefixes and codec tags throughout the archive formats.
//
// Encoded values are limited to 63 bits, which bounds an encoding at
// MaxLen bytes. Decoding rejects non minimal encodings (a trailing zero
// continuation group) the same way the multiformats implementation does.
package varint

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	mvarint "github.com/multiformats/go-varint"
)

const (
	// MaxLen is the longest encoding we accept.
	MaxLen = mvarint.MaxLenUvarint63
	// MaxValue is the largest value that fits in MaxLen bytes.
	MaxValue = mvarint.MaxValueUvarint63
)

// Encode returns the varint encoding of v.
func Encode(v uint64) ([]byte, error) {
	if v > MaxValue {
		return nil, fmt.Errorf("%w: %d", ErrValueTooLarge, v)
	}
	return mvarint.ToUvarint(v), nil
}

// Append appends the encoding of v to buf.
func Append(buf []byte, v uint64) ([]byte, error) {
	if v > MaxValue {
		return nil, fmt.Errorf("%w: %d", ErrValueTooLarge, v)
	}
	var tmp [MaxLen]byte
	n := mvarint.PutUvarint(tmp[:], v)
	return append(buf, tmp[:n]...), nil
}

// Size returns the encoded length of v.
func Size(v uint64) int {
	return mvarint.UvarintSize(v)
}

// Decode reads a varint from the front of buf, returning the value and the
// number of bytes consumed.
func Decode(buf []byte) (uint64, int, error) {
	v, n, err := mvarint.FromUvarint(buf)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrMalformedVarint, err)
	}
	return v, n, nil
}

// DecodeFrom reads a varint from br, consuming exactly the bytes of the
// encoding. io.EOF is returned unwrapped when br is exhausted before the
// first byte, so callers can tell a clean end of stream from truncation.
func DecodeFrom(br *bufio.Reader) (uint64, error) {
	peek, err := br.Peek(MaxLen)
	if len(peek) == 0 {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return 0, err
	}
	v, n, derr := Decode(peek)
	if derr != nil {
		if errors.Is(derr, mvarint.ErrUnderflow) && err != nil {
			return 0, fmt.Errorf("%w: %w", ErrMalformedVarint, io.ErrUnexpectedEOF)
		}
		return 0, derr
	}
	if _, err := br.Discard(n); err != nil {
		return 0, err
	}
	return v, nil
}

// ReadFrom reads a varint one byte at a time.
func ReadFrom(r io.ByteReader) (uint64, error) {
	v, err := mvarint.ReadUvarint(r)
	if err == nil || err == io.EOF {
		return v, err
	}
	return 0, fmt.Errorf("%w: %w", ErrMalformedVarint, err)
}
