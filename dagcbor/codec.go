package dagcbor

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// MaxDepth bounds the nesting of lists and maps we will decode.
const MaxDepth = 64

const (
	maxArrayElements = 1 << 20
	maxMapPairs      = 1 << 20
)

var (
	encMode  cbor.EncMode
	decMode  cbor.DecMode
	diagMode cbor.DiagMode
)

// NewEncOptions returns the deterministic encoder settings. Floats keep
// their width, NaN and infinities are not rewritten and indefinite length
// items are never produced.
func NewEncOptions() cbor.EncOptions {
	return cbor.EncOptions{
		Sort:          cbor.SortLengthFirst,
		ShortestFloat: cbor.ShortestFloatNone,
		NaNConvert:    cbor.NaNConvertNone,
		InfConvert:    cbor.InfConvertNone,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsEmpty,
		TagsMd:        cbor.TagsAllowed,
	}
}

// NewDecOptions returns the limits applied before the strict reader runs.
func NewDecOptions() cbor.DecOptions {
	return cbor.DecOptions{
		MaxNestedLevels:  MaxDepth,
		MaxArrayElements: maxArrayElements,
		MaxMapPairs:      maxMapPairs,
		IndefLength:      cbor.IndefLengthForbidden,
		TagsMd:           cbor.TagsAllowed,
		UTF8:             cbor.UTF8DecodeInvalid,
	}
}

func init() {
	var err error
	if encMode, err = NewEncOptions().EncMode(); err != nil {
		panic(fmt.Sprintf("dagcbor: encoder options: %v", err))
	}
	if decMode, err = NewDecOptions().DecMode(); err != nil {
		panic(fmt.Sprintf("dagcbor: decoder options: %v", err))
	}
	diagOpts := cbor.DiagOptions{
		ByteStringEncoding: cbor.ByteStringBase16Encoding,
		MaxNestedLevels:    MaxDepth,
		MaxArrayElements:   maxArrayElements,
		MaxMapPairs:        maxMapPairs,
	}
	if diagMode, err = diagOpts.DiagMode(); err != nil {
		panic(fmt.Sprintf("dagcbor: diagnostic options: %v", err))
	}
}

// Diagnose renders b in CBOR diagnostic notation.
func Diagnose(b []byte) (string, error) {
	s, err := diagMode.Diagnose(b)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedCBOR, err)
	}
	return s, nil
}
