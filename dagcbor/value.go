package dagcbor

import (
	"sort"

	"github.com/ipfs/go-cid"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindInt Kind = iota
	KindFloat
	KindString
	KindBytes
	KindBool
	KindNull
	KindList
	KindMap
	KindLink
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindBool:
		return "bool"
	case KindNull:
		return "null"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindLink:
		return "link"
	default:
		return "unknown"
	}
}

// Value is one decoded dag-cbor data item. The implementations in this
// package are the only ones.
type Value interface {
	Kind() Kind
	isValue()
}

type (
	Int    int64
	Float  float64
	String string
	Bytes  []byte
	Bool   bool
	Null   struct{}
	List   []Value
	Map    map[string]Value
	Link   struct{ CID cid.Cid }
)

func (Int) Kind() Kind    { return KindInt }
func (Float) Kind() Kind  { return KindFloat }
func (String) Kind() Kind { return KindString }
func (Bytes) Kind() Kind  { return KindBytes }
func (Bool) Kind() Kind   { return KindBool }
func (Null) Kind() Kind   { return KindNull }
func (List) Kind() Kind   { return KindList }
func (Map) Kind() Kind    { return KindMap }
func (Link) Kind() Kind   { return KindLink }

func (Int) isValue()    {}
func (Float) isValue()  {}
func (String) isValue() {}
func (Bytes) isValue()  {}
func (Bool) isValue()   {}
func (Null) isValue()   {}
func (List) isValue()   {}
func (Map) isValue()    {}
func (Link) isValue()   {}

// Keys returns the map keys in canonical order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keyLess(keys[i], keys[j]) })
	return keys
}

// Get returns the value for key and whether it was present.
func (m Map) Get(key string) (Value, bool) {
	v, ok := m[key]
	return v, ok
}

// Text returns the text at key, if present and a string.
func (m Map) Text(key string) (string, bool) {
	s, ok := m[key].(String)
	return string(s), ok
}

// Bytes returns the byte string at key, if present and a byte string.
func (m Map) Bytes(key string) ([]byte, bool) {
	b, ok := m[key].(Bytes)
	return []byte(b), ok
}

// Link returns the identifier at key, if present and a link.
func (m Map) Link(key string) (cid.Cid, bool) {
	l, ok := m[key].(Link)
	return l.CID, ok
}

// Int returns the integer at key, if present and an integer.
func (m Map) Int(key string) (int64, bool) {
	i, ok := m[key].(Int)
	return int64(i), ok
}

// Without returns a shallow copy of m without key.
func (m Map) Without(key string) Map {
	out := make(Map, len(m))
	for k, v := range m {
		if k != key {
			out[k] = v
		}
	}
	return out
}

// NewLink wraps c as a Value.
func NewLink(c cid.Cid) Link { return Link{CID: c} }

// keyLess orders keys the way their encodings sort: shorter first, then
// bytewise. Keys are text strings so the head length is monotonic in the
// string length.
func keyLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// IsNull reports whether v is nil or Null.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}
