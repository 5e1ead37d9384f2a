package dagcbor

import (
	"fmt"
	"math"

	"github.com/ipfs/go-cid"
)

// FromNative builds a Value from plain Go values. Maps must have string
// keys. A nil *cid.Cid becomes Null.
func FromNative(v any) (Value, error) {
	return fromNative(v, 0)
}

// MustFromNative is FromNative for literals known to be valid.
func MustFromNative(v any) Value {
	out, err := FromNative(v)
	if err != nil {
		panic(err)
	}
	return out
}

func fromNative(v any, depth int) (Value, error) {
	if depth > MaxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrUnsupportedValue, MaxDepth)
	}
	switch x := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(x), nil
	case int8:
		return Int(x), nil
	case int16:
		return Int(x), nil
	case int32:
		return Int(x), nil
	case int64:
		return Int(x), nil
	case uint:
		return fromUint(uint64(x))
	case uint8:
		return Int(x), nil
	case uint16:
		return Int(x), nil
	case uint32:
		return Int(x), nil
	case uint64:
		return fromUint(x)
	case float32:
		return Float(x), nil
	case float64:
		return Float(x), nil
	case string:
		return String(x), nil
	case []byte:
		return Bytes(x), nil
	case cid.Cid:
		return Link{CID: x}, nil
	case *cid.Cid:
		if x == nil {
			return Null{}, nil
		}
		return Link{CID: *x}, nil
	case []string:
		out := make(List, len(x))
		for i, s := range x {
			out[i] = String(s)
		}
		return out, nil
	case []any:
		out := make(List, len(x))
		for i, e := range x {
			ev, err := fromNative(e, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil
	case map[string]string:
		out := make(Map, len(x))
		for k, s := range x {
			out[k] = String(s)
		}
		return out, nil
	case map[string]any:
		out := make(Map, len(x))
		for k, e := range x {
			ev, err := fromNative(e, depth+1)
			if err != nil {
				return nil, err
			}
			out[k] = ev
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

func fromUint(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedValue, u)
	}
	return Int(u), nil
}
