package dagcbor

import (
	"encoding/base64"
	"math"

	"github.com/forestrie/go-repocar/contentid"
)

// Normalize converts v into the JSON shaped form written by the reference
// exporter: maps become map[string]any, lists []any, integers int64 and
// so on.
//
// Byte strings and links are rendered according to the key of the map
// entry that holds them (list elements take the key of their list):
//
//	bytes under "sig"                  bare base64 string
//	other bytes                        {"$bytes": base64}
//	links under "ref" or "link"        {"$link": cid}
//	links under "v", "t", "l", "data"  {"/": cid}
//	other links                        bare cid string
//
// These rules are asymmetric on purpose. Consumers compare our output
// with the exporter's byte for byte, so do not make them uniform.
func Normalize(v Value) any {
	return normalize("", v)
}

var b64 = base64.RawStdEncoding

func normalize(key string, v Value) any {
	switch x := v.(type) {
	case nil, Null:
		return nil
	case Int:
		return int64(x)
	case Float:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			// json has no representation for these
			return nonFiniteText(f)
		}
		return f
	case String:
		return string(x)
	case Bool:
		return bool(x)
	case Bytes:
		s := b64.EncodeToString(x)
		if key == "sig" {
			return s
		}
		return map[string]any{"$bytes": s}
	case Link:
		s := contentid.Encode(x.CID)
		switch key {
		case "ref", "link":
			return map[string]any{"$link": s}
		case "v", "t", "l", "data":
			return map[string]any{"/": s}
		default:
			return s
		}
	case List:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalize(key, e)
		}
		return out
	case Map:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = normalize(k, e)
		}
		return out
	default:
		return nil
	}
}

func nonFiniteText(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	default:
		return "-Infinity"
	}
}
