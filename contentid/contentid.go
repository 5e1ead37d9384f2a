package contentid

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multihash"
)

const (
	Raw     = cid.Raw
	DagPB   = cid.DagProtobuf
	DagCBOR = cid.DagCBOR

	SHA2_256 = multihash.SHA2_256

	// V0Len is the binary length of every version 0 identifier.
	V0Len = 34
	// V0TextLen is the length of the base58btc text of a version 0 identifier.
	V0TextLen = 46
)

// Info is the parsed form of an identifier.
type Info struct {
	Version    uint64
	Codec      uint64
	HashAlgo   uint64
	HashLength int
	Digest     []byte
	CID        cid.Cid
}

// Parse decodes the text form of an identifier of either version.
func Parse(text string) (cid.Cid, error) {
	if len(text) == V0TextLen && strings.HasPrefix(text, "Qm") {
		c, err := cid.Decode(text)
		if err != nil {
			return cid.Undef, fmt.Errorf("%w: %w", ErrInvalidCID, err)
		}
		return c, nil
	}
	_, data, err := multibase.Decode(text)
	if err != nil {
		return cid.Undef, fmt.Errorf("%w: %w", ErrInvalidCID, err)
	}
	c, n, err := FromBytes(data)
	if err != nil {
		return cid.Undef, err
	}
	if n != len(data) {
		return cid.Undef, fmt.Errorf("%w: %d trailing bytes", ErrInvalidCID, len(data)-n)
	}
	return c, nil
}

// Decode parses text and breaks out its fields.
func Decode(text string) (Info, error) {
	c, err := Parse(text)
	if err != nil {
		return Info{}, err
	}
	return InfoOf(c)
}

// InfoOf breaks out the fields of c.
func InfoOf(c cid.Cid) (Info, error) {
	if !c.Defined() {
		return Info{}, fmt.Errorf("%w: undefined", ErrInvalidCID)
	}
	dmh, err := multihash.Decode(c.Hash())
	if err != nil {
		return Info{}, fmt.Errorf("%w: %w", ErrInvalidCID, err)
	}
	return Info{
		Version:    c.Version(),
		Codec:      c.Type(),
		HashAlgo:   dmh.Code,
		HashLength: dmh.Length,
		Digest:     dmh.Digest,
		CID:        c,
	}, nil
}

// FromBytes reads a binary identifier from the front of b and returns it
// along with the number of bytes consumed. A leading 0x12 0x20 selects the
// fixed length version 0 layout, anything else is read as version 1.
func FromBytes(b []byte) (cid.Cid, int, error) {
	if len(b) >= 2 && b[0] == 0x12 && b[1] == 0x20 {
		if len(b) < V0Len {
			return cid.Undef, 0, fmt.Errorf("%w: truncated v0 identifier", ErrInvalidCID)
		}
		c, err := cid.Cast(b[:V0Len])
		if err != nil {
			return cid.Undef, 0, fmt.Errorf("%w: %w", ErrInvalidCID, err)
		}
		return c, V0Len, nil
	}
	if len(b) > 0 && b[0] != 1 {
		return cid.Undef, 0, fmt.Errorf("%w: leading byte %#x", ErrUnsupportedVersion, b[0])
	}
	n, c, err := cid.CidFromBytes(b)
	if err != nil {
		return cid.Undef, 0, fmt.Errorf("%w: %w", ErrInvalidCID, err)
	}
	return c, n, nil
}

// Encode returns the canonical text of c: base58btc for version 0 and
// base32 for version 1.
func Encode(c cid.Cid) string {
	if !c.Defined() {
		return "<undefined>"
	}
	if c.Version() == 0 {
		return c.String()
	}
	s, err := c.StringOfBase(multibase.Base32)
	if err != nil {
		return c.String()
	}
	return s
}

// Sum hashes data with sha2-256 and returns the identifier for it. Version 0
// is only valid for dag-pb.
func Sum(data []byte, version uint64, codec uint64) (cid.Cid, error) {
	mh, err := multihash.Sum(data, SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	switch version {
	case 0:
		if codec != DagPB {
			return cid.Undef, fmt.Errorf("%w: v0 requires dag-pb, got %#x", ErrUnsupportedCodec, codec)
		}
		return cid.NewCidV0(mh), nil
	case 1:
		switch codec {
		case Raw, DagPB, DagCBOR:
		default:
			return cid.Undef, fmt.Errorf("%w: %#x", ErrUnsupportedCodec, codec)
		}
		return cid.NewCidV1(codec, mh), nil
	default:
		return cid.Undef, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
}

// EncodeRaw returns the version 1 raw text identifier of data.
func EncodeRaw(data []byte) (string, error) {
	c, err := Sum(data, 1, Raw)
	if err != nil {
		return "", err
	}
	return Encode(c), nil
}

// Verify reports whether data hashes to c.
func Verify(data []byte, c cid.Cid) bool {
	if !c.Defined() {
		return false
	}
	return VerifyCodec(data, c, c.Type())
}

// VerifyCodec reports whether data hashes to c and c carries codec.
func VerifyCodec(data []byte, c cid.Cid, codec uint64) bool {
	if !c.Defined() || c.Type() != codec {
		return false
	}
	dmh, err := multihash.Decode(c.Hash())
	if err != nil {
		return false
	}
	mh, err := multihash.Sum(data, dmh.Code, dmh.Length)
	if err != nil {
		return false
	}
	return bytes.Equal(mh, c.Hash())
}

// LinkBytes returns the dag-cbor tag 42 payload for c.
func LinkBytes(c cid.Cid) []byte {
	b := c.Bytes()
	out := make([]byte, 0, len(b)+1)
	out = append(out, 0x00)
	return append(out, b...)
}

// FromLinkBytes is the inverse of LinkBytes.
func FromLinkBytes(b []byte) (cid.Cid, error) {
	if len(b) < 2 || b[0] != 0x00 {
		return cid.Undef, ErrInvalidLink
	}
	c, n, err := FromBytes(b[1:])
	if err != nil {
		return cid.Undef, err
	}
	if n != len(b)-1 {
		return cid.Undef, fmt.Errorf("%w: %d trailing bytes", ErrInvalidLink, len(b)-1-n)
	}
	return c, nil
}
