package varint

import "errors"

var (
	ErrMalformedVarint = errors.New("malformed varint")
	ErrValueTooLarge   = errors.New("varint value exceeds 63 bits")
)
