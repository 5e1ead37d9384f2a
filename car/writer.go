package car

import (
	"fmt"
	"io"

	"github.com/ipfs/go-cid"

	"github.com/forestrie/go-repocar/contentid"
	"github.com/forestrie/go-repocar/dagcbor"
	"github.com/forestrie/go-repocar/varint"
)

// Writer produces an archive. The header is written by NewWriter; blocks
// are framed in the order they are put.
type Writer struct {
	w io.Writer
}

func NewWriter(w io.Writer, roots ...cid.Cid) (*Writer, error) {
	hdr, err := EncodeHeader(Header{Version: Version, Roots: roots})
	if err != nil {
		return nil, err
	}
	buf, err := varint.Append(nil, uint64(len(hdr)))
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(append(buf, hdr...)); err != nil {
		return nil, err
	}
	return &Writer{w: w}, nil
}

// Put frames data under c. The data is not checked against c.
func (w *Writer) Put(c cid.Cid, data []byte) error {
	cb := c.Bytes()
	buf, err := varint.Append(nil, uint64(len(cb)+len(data)))
	if err != nil {
		return err
	}
	buf = append(buf, cb...)
	buf = append(buf, data...)
	_, err = w.w.Write(buf)
	return err
}

// PutValue encodes v, writes it as a dag-cbor block and returns its
// identifier.
func (w *Writer) PutValue(v dagcbor.Value) (cid.Cid, error) {
	data, err := dagcbor.Encode(v)
	if err != nil {
		return cid.Undef, err
	}
	c, err := contentid.Sum(data, 1, contentid.DagCBOR)
	if err != nil {
		return cid.Undef, err
	}
	if err := w.Put(c, data); err != nil {
		return cid.Undef, fmt.Errorf("write %s: %w", contentid.Encode(c), err)
	}
	return c, nil
}
