package car

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/ipfs/go-cid"

	"github.com/forestrie/go-repocar/blockstore"
	"github.com/forestrie/go-repocar/contentid"
	"github.com/forestrie/go-repocar/dagcbor"
)

// Archive is a fully decoded archive. Blocks is keyed by the text form of
// each identifier; Order keeps the stream order of first occurrences.
type Archive struct {
	Header  Header
	Blocks  map[string]Block
	Order   []cid.Cid
	Skipped int
}

// Decode reads every block of rs.
func Decode(rs io.ReadSeeker, opts ...ReaderOption) (*Archive, error) {
	r, err := NewReader(rs, opts...)
	if err != nil {
		return nil, err
	}
	return r.Archive()
}

// DecodeBytes is Decode over an in memory archive.
func DecodeBytes(b []byte, opts ...ReaderOption) (*Archive, error) {
	return Decode(bytes.NewReader(b), opts...)
}

// Archive reads every block of the stream behind r.
func (r *Reader) Archive() (*Archive, error) {
	it, err := r.Blocks()
	if err != nil {
		return nil, err
	}
	a := &Archive{
		Header: r.header,
		Blocks: make(map[string]Block),
	}
	for it.Next() {
		blk := it.Block()
		key := contentid.Encode(blk.CID)
		if _, dup := a.Blocks[key]; dup {
			continue
		}
		a.Blocks[key] = blk
		a.Order = append(a.Order, blk.CID)
	}
	a.Skipped = it.Skipped()
	if err := it.Err(); err != nil {
		return nil, err
	}
	return a, nil
}

// Lookup returns the block for c.
func (a *Archive) Lookup(c cid.Cid) (Block, bool) {
	blk, ok := a.Blocks[contentid.Encode(c)]
	return blk, ok
}

// Get returns the raw bytes of c, satisfying blockstore.Getter.
func (a *Archive) Get(ctx context.Context, c cid.Cid) ([]byte, error) {
	blk, ok := a.Lookup(c)
	if !ok {
		return nil, fmt.Errorf("%w: %s", blockstore.ErrBlockNotFound, contentid.Encode(c))
	}
	return blk.Raw, nil
}

// GetValue returns the already decoded dag-cbor value of c.
func (a *Archive) GetValue(ctx context.Context, c cid.Cid) (dagcbor.Value, error) {
	blk, ok := a.Lookup(c)
	if !ok {
		return nil, fmt.Errorf("%w: %s", blockstore.ErrBlockNotFound, contentid.Encode(c))
	}
	if blk.CBOR == nil {
		return nil, fmt.Errorf("%w: %s is not dag-cbor", ErrUnsupportedCodec, contentid.Encode(c))
	}
	return blk.CBOR, nil
}

// Root returns the first root.
func (a *Archive) Root() (cid.Cid, bool) {
	if len(a.Header.Roots) == 0 {
		return cid.Undef, false
	}
	return a.Header.Roots[0], true
}

// SignedCommit returns the block of the first root when it is a map with a
// non empty "sig".
func (a *Archive) SignedCommit() (Block, error) {
	root, ok := a.Root()
	if !ok {
		return Block{}, fmt.Errorf("%w: archive has no roots", ErrSignedCommitNotFound)
	}
	blk, ok := a.Lookup(root)
	if !ok {
		return Block{}, fmt.Errorf("%w: root %s not in archive", ErrSignedCommitNotFound, contentid.Encode(root))
	}
	return checkSigned(blk)
}

// SignedCommit streams rs until it finds the first root and returns it
// when it is a signed commit. Blocks are not retained.
func SignedCommit(rs io.ReadSeeker, opts ...ReaderOption) (Block, error) {
	r, err := NewReader(rs, opts...)
	if err != nil {
		return Block{}, err
	}
	if len(r.header.Roots) == 0 {
		return Block{}, fmt.Errorf("%w: archive has no roots", ErrSignedCommitNotFound)
	}
	root := r.header.Roots[0]
	it, err := r.Blocks()
	if err != nil {
		return Block{}, err
	}
	for it.Next() {
		if blk := it.Block(); blk.CID.Equals(root) {
			return checkSigned(blk)
		}
	}
	if err := it.Err(); err != nil {
		return Block{}, err
	}
	return Block{}, fmt.Errorf("%w: root %s not in archive", ErrSignedCommitNotFound, contentid.Encode(root))
}

func checkSigned(blk Block) (Block, error) {
	m, ok := blk.Map()
	if !ok {
		return Block{}, fmt.Errorf("%w: root is not a map", ErrSignedCommitNotFound)
	}
	if sig, ok := m.Bytes("sig"); !ok || len(sig) == 0 {
		return Block{}, fmt.Errorf("%w: root has no signature", ErrSignedCommitNotFound)
	}
	return blk, nil
}

// CopyTo writes every block of a into dst and returns the count written.
func (a *Archive) CopyTo(ctx context.Context, dst blockstore.Putter) (int, error) {
	n := 0
	for _, c := range a.Order {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		blk := a.Blocks[contentid.Encode(c)]
		if err := dst.Put(ctx, c, blk.Raw); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
