// Package dagcbor implements the canonical CBOR profile used for
// repository blocks.
//
// A block decodes to a Value, a closed set of kinds:
//
//	Int     major types 0 and 1, within int64
//	Float   major type 7, always the 8 byte form
//	String  major type 3
//	Bytes   major type 2
//	Bool    simple values 20 and 21
//	Null    simple value 22
//	List    major type 4
//	Map     major type 5, text keys only
//	Link    tag 42 over a byte string 0x00 ‖ binary content identifier
//
// Nothing else is accepted: no other tags, no undefined, no half or
// single precision floats, no indefinite lengths.
//
// Encoding is deterministic. Map keys are written in length-first order
// (shorter encoded key first, then bytewise), integers use the smallest
// head, floats always use 8 bytes. The same Value therefore always
// produces the same bytes, and so the same content identifier.
//
// Map entries holding Null are dropped when encoding, with one exception:
// the key "prev" keeps an explicit null. Commit blocks written by the
// reference exporter carry "prev": null and their signatures cover that
// byte sequence, so dropping it would break every signature.
//
// Normalize converts a Value into the JSON shaped form the exporter
// produces. The mapping depends on the enclosing map key, see
// normalize.go.
package dagcbor
