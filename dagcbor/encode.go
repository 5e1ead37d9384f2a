package dagcbor

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/forestrie/go-repocar/contentid"
)

// TagLink is the CBOR tag carrying a content identifier.
const TagLink = 42

// keepNullKey is the only map key whose null value survives encoding.
const keepNullKey = "prev"

// Encode returns the canonical encoding of v.
func Encode(v Value) ([]byte, error) {
	native, err := toNative(v, 0)
	if err != nil {
		return nil, err
	}
	b, err := encMode.Marshal(native)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedValue, err)
	}
	return b, nil
}

// MarshalCBOR writes the link as tag 42 over 0x00 ‖ identifier bytes.
func (l Link) MarshalCBOR() ([]byte, error) {
	if !l.CID.Defined() {
		return nil, fmt.Errorf("%w: undefined link", ErrUnsupportedValue)
	}
	return encMode.Marshal(cbor.Tag{Number: TagLink, Content: contentid.LinkBytes(l.CID)})
}

func toNative(v Value, depth int) (any, error) {
	if depth > MaxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrUnsupportedValue, MaxDepth)
	}
	switch x := v.(type) {
	case nil, Null:
		return nil, nil
	case Int:
		return int64(x), nil
	case Float:
		return float64(x), nil
	case String:
		return string(x), nil
	case Bytes:
		if x == nil {
			return []byte{}, nil
		}
		return []byte(x), nil
	case Bool:
		return bool(x), nil
	case Link:
		return x, nil
	case List:
		out := make([]any, len(x))
		for i, e := range x {
			n, err := toNative(e, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case Map:
		out := make(map[string]any, len(x))
		for k, e := range x {
			if IsNull(e) && k != keepNullKey {
				continue
			}
			n, err := toNative(e, depth+1)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}
