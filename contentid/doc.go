// Package contentid creates, parses and verifies the content identifiers
// that address every block in a repository archive.
//
// Two versions are in use.
//
// Version 0 identifiers are bare sha2-256 multihashes, always 34 bytes:
//
//	0x12 0x20 <32 byte digest>
//
// and are implicitly dag-pb. Their text form is base58btc without a
// multibase prefix, which is why they always start "Qm" and are 46
// characters long.
//
// Version 1 identifiers are
//
//	varint(1) varint(codec) varint(hash code) varint(digest length) digest
//
// and their text form used here is lower case base32 with the multibase
// prefix 'b'. The codecs we produce are raw (0x55), dag-pb (0x70) and
// dag-cbor (0x71).
//
// Inside dag-cbor, identifiers are carried as tag 42 byte strings whose
// first byte is the multibase identity prefix 0x00. LinkBytes and
// FromLinkBytes deal with that framing.
//
// Verification recomputes the multihash of the payload and compares it
// with the identifier's multihash as raw bytes. No text encoding is
// involved.
package contentid
