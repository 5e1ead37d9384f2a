package dagcbor

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedCBOR     = errors.New("malformed dag-cbor")
	ErrUnexpectedEnd     = fmt.Errorf("%w: unexpected end of input", ErrMalformedCBOR)
	ErrUnsupportedTag    = fmt.Errorf("%w: unsupported tag", ErrMalformedCBOR)
	ErrUnsupportedSimple = fmt.Errorf("%w: unsupported simple value", ErrMalformedCBOR)
	ErrDuplicateKey      = fmt.Errorf("%w: duplicate map key", ErrMalformedCBOR)
	ErrInvalidKey        = fmt.Errorf("%w: map key is not a text string", ErrMalformedCBOR)
	ErrIntegerOverflow   = fmt.Errorf("%w: integer outside int64", ErrMalformedCBOR)
	ErrTrailingBytes     = fmt.Errorf("%w: trailing bytes", ErrMalformedCBOR)

	ErrUnsupportedValue = errors.New("value has no dag-cbor representation")
)
