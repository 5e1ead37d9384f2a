package repotesting

import (
	"bytes"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/require"

	"github.com/forestrie/go-repocar/car"
	"github.com/forestrie/go-repocar/contentid"
	"github.com/forestrie/go-repocar/dagcbor"
)

// Frame is one block as it will be written, right or wrong.
type Frame struct {
	CID  cid.Cid
	Data []byte
}

// ArchiveBuilder accumulates frames in insertion order.
type ArchiveBuilder struct {
	t      *testing.T
	Frames []Frame
}

func NewArchiveBuilder(t *testing.T) *ArchiveBuilder {
	return &ArchiveBuilder{t: t}
}

// Add encodes v as a dag-cbor block.
func (b *ArchiveBuilder) Add(v dagcbor.Value) cid.Cid {
	data, err := dagcbor.Encode(v)
	require.NoError(b.t, err)
	return b.AddBytes(contentid.DagCBOR, data)
}

// AddNative is Add for plain Go values.
func (b *ArchiveBuilder) AddNative(v any) cid.Cid {
	dv, err := dagcbor.FromNative(v)
	require.NoError(b.t, err)
	return b.Add(dv)
}

// AddBytes adds data as a version 1 block of codec.
func (b *ArchiveBuilder) AddBytes(codec uint64, data []byte) cid.Cid {
	c, err := contentid.Sum(data, 1, codec)
	require.NoError(b.t, err)
	b.Frames = append(b.Frames, Frame{CID: c, Data: data})
	return c
}

// AddFrame adds a frame without checking data against c.
func (b *ArchiveBuilder) AddFrame(c cid.Cid, data []byte) {
	b.Frames = append(b.Frames, Frame{CID: c, Data: data})
}

// Bytes writes the archive with the given roots.
func (b *ArchiveBuilder) Bytes(roots ...cid.Cid) []byte {
	return WriteArchive(b.t, roots, b.Frames)
}

// BytesWithout writes the archive leaving out the frames for omit.
func (b *ArchiveBuilder) BytesWithout(roots []cid.Cid, omit ...cid.Cid) []byte {
	var frames []Frame
	for _, f := range b.Frames {
		skip := false
		for _, o := range omit {
			if f.CID.Equals(o) {
				skip = true
				break
			}
		}
		if !skip {
			frames = append(frames, f)
		}
	}
	return WriteArchive(b.t, roots, frames)
}

// Corrupt flips a bit in the payload of the frame for c so it no longer
// verifies.
func (b *ArchiveBuilder) Corrupt(c cid.Cid) {
	for i, f := range b.Frames {
		if f.CID.Equals(c) {
			data := append([]byte(nil), f.Data...)
			data[len(data)-1] ^= 0x01
			b.Frames[i].Data = data
			return
		}
	}
	b.t.Fatalf("corrupt: no frame for %s", contentid.Encode(c))
}

func WriteArchive(t *testing.T, roots []cid.Cid, frames []Frame) []byte {
	var buf bytes.Buffer
	w, err := car.NewWriter(&buf, roots...)
	require.NoError(t, err)
	for _, f := range frames {
		require.NoError(t, w.Put(f.CID, f.Data))
	}
	return buf.Bytes()
}
