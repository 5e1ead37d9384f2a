package contentid

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCID         = errors.New("invalid content identifier")
	ErrUnsupportedVersion = fmt.Errorf("%w: unsupported version", ErrInvalidCID)
	ErrUnsupportedCodec   = fmt.Errorf("%w: unsupported codec", ErrInvalidCID)
	ErrInvalidLink        = fmt.Errorf("%w: invalid link bytes", ErrInvalidCID)
)
