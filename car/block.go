package car

import (
	"fmt"

	"github.com/ipfs/go-cid"

	"github.com/forestrie/go-repocar/contentid"
	"github.com/forestrie/go-repocar/dagcbor"
	"github.com/forestrie/go-repocar/dagpb"
)

// Block is one verified frame. Exactly one of CBOR and PB is set for the
// structured codecs, raw blocks only carry Raw.
type Block struct {
	CID  cid.Cid
	Raw  []byte
	CBOR dagcbor.Value
	PB   *dagpb.Node
}

// Map returns the block as a dag-cbor map, if it is one.
func (b Block) Map() (dagcbor.Map, bool) {
	m, ok := b.CBOR.(dagcbor.Map)
	return m, ok
}

// DecodeBlock verifies payload against c, unless verify is false, and
// decodes it under c's codec.
func DecodeBlock(c cid.Cid, payload []byte, verify bool) (Block, error) {
	if verify && !contentid.Verify(payload, c) {
		return Block{}, fmt.Errorf("%w: %s", ErrBlockHashMismatch, contentid.Encode(c))
	}
	blk := Block{CID: c, Raw: payload}
	switch c.Type() {
	case contentid.DagCBOR:
		v, err := dagcbor.Decode(payload)
		if err != nil {
			return Block{}, err
		}
		blk.CBOR = v
	case contentid.DagPB:
		n, err := dagpb.Decode(payload)
		if err != nil {
			return Block{}, err
		}
		blk.PB = n
	case contentid.Raw:
	default:
		return Block{}, fmt.Errorf("%w: %#x", ErrUnsupportedCodec, c.Type())
	}
	return blk, nil
}

func decodeFrame(frame []byte, verify bool) (Block, error) {
	c, n, err := contentid.FromBytes(frame)
	if err != nil {
		return Block{}, err
	}
	return DecodeBlock(c, frame[n:], verify)
}
