package mst

import (
	"fmt"

	"github.com/ipfs/go-cid"

	"github.com/forestrie/go-repocar/dagcbor"
)

// Commit is the signed head of a repository.
type Commit struct {
	DID     string
	Version int64
	Data    cid.Cid
	Rev     string
	Prev    *cid.Cid
	Sig     []byte
}

// DecodeCommit interprets a decoded block as a commit. The signature is
// optional here, verification is the concern of package commit.
func DecodeCommit(v dagcbor.Value) (*Commit, error) {
	m, ok := v.(dagcbor.Map)
	if !ok {
		return nil, fmt.Errorf("%w: %s, want map", ErrInvalidCommit, kindOf(v))
	}
	did, ok := m.Text("did")
	if !ok || did == "" {
		return nil, fmt.Errorf("%w: missing did", ErrInvalidCommit)
	}
	data, ok := m.Link("data")
	if !ok {
		return nil, fmt.Errorf("%w: missing data link", ErrInvalidCommit)
	}
	c := &Commit{DID: did, Data: data}
	c.Version, _ = m.Int("version")
	c.Rev, _ = m.Text("rev")
	c.Sig, _ = m.Bytes("sig")
	if prev, ok := m.Link("prev"); ok {
		c.Prev = &prev
	}
	return c, nil
}
