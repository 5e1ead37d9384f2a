package dagcbor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/fxamacker/cbor/v2"

	"github.com/forestrie/go-repocar/contentid"
)

const (
	majorUint   = 0
	majorNegint = 1
	majorBytes  = 2
	majorText   = 3
	majorArray  = 4
	majorMap    = 5
	majorTag    = 6
	majorSimple = 7
)

const (
	simpleFalse   = 20
	simpleTrue    = 21
	simpleNull    = 22
	simpleFloat64 = 27
)

// Decode decodes exactly one data item from b.
func Decode(b []byte) (Value, error) {
	if err := decMode.Wellformed(b); err != nil {
		return nil, wrapLibError(err)
	}
	return decodeItem(b)
}

// DecodeFirst decodes the first data item in b and returns the bytes that
// follow it.
func DecodeFirst(b []byte) (Value, []byte, error) {
	var raw cbor.RawMessage
	rest, err := decMode.UnmarshalFirst(b, &raw)
	if err != nil {
		return nil, nil, wrapLibError(err)
	}
	v, err := decodeItem(raw)
	if err != nil {
		return nil, nil, err
	}
	return v, rest, nil
}

// DecodeMap decodes b and requires the top level item to be a map.
func DecodeMap(b []byte) (Map, error) {
	v, err := Decode(b)
	if err != nil {
		return nil, err
	}
	m, ok := v.(Map)
	if !ok {
		return nil, fmt.Errorf("%w: top level %s, want map", ErrMalformedCBOR, v.Kind())
	}
	return m, nil
}

func decodeItem(b []byte) (Value, error) {
	d := decoder{data: b}
	v, err := d.value(0)
	if err != nil {
		return nil, err
	}
	if d.off != len(d.data) {
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingBytes, len(d.data)-d.off)
	}
	return v, nil
}

func wrapLibError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrUnexpectedEnd, err)
	}
	var extra *cbor.ExtraneousDataError
	if errors.As(err, &extra) {
		return fmt.Errorf("%w: %w", ErrTrailingBytes, err)
	}
	return fmt.Errorf("%w: %w", ErrMalformedCBOR, err)
}

// decoder walks a well formed item and enforces the profile. The library
// pass has already bounded nesting and element counts, the checks here
// keep the reader safe when used on its own.
type decoder struct {
	data []byte
	off  int
}

func (d *decoder) remaining() uint64 {
	return uint64(len(d.data) - d.off)
}

func (d *decoder) head() (major byte, info byte, arg uint64, err error) {
	if d.off >= len(d.data) {
		return 0, 0, 0, ErrUnexpectedEnd
	}
	ib := d.data[d.off]
	d.off++
	major, info = ib>>5, ib&0x1f
	switch {
	case info < 24:
		return major, info, uint64(info), nil
	case info <= 27:
		n := 1 << (info - 24)
		if len(d.data)-d.off < n {
			return 0, 0, 0, ErrUnexpectedEnd
		}
		p := d.data[d.off : d.off+n]
		d.off += n
		switch n {
		case 1:
			arg = uint64(p[0])
		case 2:
			arg = uint64(binary.BigEndian.Uint16(p))
		case 4:
			arg = uint64(binary.BigEndian.Uint32(p))
		default:
			arg = binary.BigEndian.Uint64(p)
		}
		return major, info, arg, nil
	case info == 31:
		return 0, 0, 0, fmt.Errorf("%w: indefinite length", ErrMalformedCBOR)
	default:
		return 0, 0, 0, fmt.Errorf("%w: reserved additional info %d", ErrMalformedCBOR, info)
	}
}

func (d *decoder) bytes(n uint64) ([]byte, error) {
	if n > d.remaining() {
		return nil, ErrUnexpectedEnd
	}
	out := make([]byte, n)
	copy(out, d.data[d.off:d.off+int(n)])
	d.off += int(n)
	return out, nil
}

func (d *decoder) value(depth int) (Value, error) {
	if depth > MaxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrMalformedCBOR, MaxDepth)
	}
	major, info, arg, err := d.head()
	if err != nil {
		return nil, err
	}
	switch major {
	case majorUint:
		if arg > math.MaxInt64 {
			return nil, ErrIntegerOverflow
		}
		return Int(arg), nil

	case majorNegint:
		if arg > math.MaxInt64 {
			return nil, ErrIntegerOverflow
		}
		return Int(-1 - int64(arg)), nil

	case majorBytes:
		b, err := d.bytes(arg)
		if err != nil {
			return nil, err
		}
		return Bytes(b), nil

	case majorText:
		b, err := d.bytes(arg)
		if err != nil {
			return nil, err
		}
		return String(b), nil

	case majorArray:
		// every element needs at least one byte
		if arg > d.remaining() {
			return nil, ErrUnexpectedEnd
		}
		list := make(List, 0, arg)
		for i := uint64(0); i < arg; i++ {
			e, err := d.value(depth + 1)
			if err != nil {
				return nil, err
			}
			list = append(list, e)
		}
		return list, nil

	case majorMap:
		if arg > d.remaining()/2 {
			return nil, ErrUnexpectedEnd
		}
		m := make(Map, arg)
		for i := uint64(0); i < arg; i++ {
			key, err := d.key()
			if err != nil {
				return nil, err
			}
			if _, dup := m[key]; dup {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, key)
			}
			e, err := d.value(depth + 1)
			if err != nil {
				return nil, err
			}
			m[key] = e
		}
		return m, nil

	case majorTag:
		if arg != TagLink {
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedTag, arg)
		}
		return d.link()

	default:
		return d.simple(info, arg)
	}
}

func (d *decoder) key() (string, error) {
	major, _, arg, err := d.head()
	if err != nil {
		return "", err
	}
	if major != majorText {
		return "", fmt.Errorf("%w: major type %d", ErrInvalidKey, major)
	}
	b, err := d.bytes(arg)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *decoder) link() (Value, error) {
	major, _, arg, err := d.head()
	if err != nil {
		return nil, err
	}
	if major != majorBytes {
		return nil, fmt.Errorf("%w: tag 42 content is major type %d", ErrUnsupportedTag, major)
	}
	b, err := d.bytes(arg)
	if err != nil {
		return nil, err
	}
	c, err := contentid.FromLinkBytes(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedCBOR, err)
	}
	return Link{CID: c}, nil
}

func (d *decoder) simple(info byte, arg uint64) (Value, error) {
	switch info {
	case simpleFalse:
		return Bool(false), nil
	case simpleTrue:
		return Bool(true), nil
	case simpleNull:
		return Null{}, nil
	case simpleFloat64:
		return Float(math.Float64frombits(arg)), nil
	case 25, 26:
		return nil, fmt.Errorf("%w: %d bit float", ErrUnsupportedSimple, 8<<(info-24))
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSimple, arg)
	}
}
