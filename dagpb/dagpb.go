// Package dagpb reads and writes the legacy protobuf node format still
// found in older archives.
//
// A node is a protobuf message with two length delimited fields:
//
//	PBNode { 2: repeated PBLink Links; 1: optional bytes Data }
//	PBLink { 1: bytes Hash; 2: optional string Name; 3: optional uint64 Tsize }
//
// The canonical encoding writes Links before Data even though Data has
// the lower field number, and sorts links by Name. Decoding is strict:
// unknown fields, wrong wire types, repeated singular fields and out of
// order link fields are all rejected.
package dagpb

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/ipfs/go-cid"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/forestrie/go-repocar/contentid"
)

const (
	fieldNodeData  protowire.Number = 1
	fieldNodeLinks protowire.Number = 2

	fieldLinkHash  protowire.Number = 1
	fieldLinkName  protowire.Number = 2
	fieldLinkTsize protowire.Number = 3
)

type Link struct {
	Hash  cid.Cid
	Name  *string
	Tsize *uint64
}

type Node struct {
	Links   []Link
	Data    []byte
	HasData bool
}

// Decode parses b as a single node.
func Decode(b []byte) (*Node, error) {
	n := &Node{}
	var haveLinks, linksBeforeData bool

	for len(b) > 0 {
		num, typ, l := protowire.ConsumeTag(b)
		if l < 0 {
			return nil, fmt.Errorf("%w: %w", ErrInvalidNode, protowire.ParseError(l))
		}
		b = b[l:]
		if typ != protowire.BytesType {
			return nil, fmt.Errorf("%w: node field %d has wire type %d, want %d", ErrInvalidNode, num, typ, protowire.BytesType)
		}
		v, l := protowire.ConsumeBytes(b)
		if l < 0 {
			return nil, fmt.Errorf("%w: %w", ErrInvalidNode, protowire.ParseError(l))
		}
		b = b[l:]

		switch num {
		case fieldNodeData:
			if n.HasData {
				return nil, fmt.Errorf("%w: duplicate Data section", ErrInvalidNode)
			}
			n.Data = append([]byte{}, v...)
			n.HasData = true
			if haveLinks {
				linksBeforeData = true
			}
		case fieldNodeLinks:
			// Links, Data, Links interleaving
			if linksBeforeData {
				return nil, fmt.Errorf("%w: duplicate Links section", ErrInvalidNode)
			}
			link, err := decodeLink(v)
			if err != nil {
				return nil, err
			}
			n.Links = append(n.Links, link)
			haveLinks = true
		default:
			return nil, fmt.Errorf("%w: unknown node field %d", ErrInvalidNode, num)
		}
	}
	return n, nil
}

// DecodeFrom reads exactly size bytes from r and decodes them.
func DecodeFrom(r io.Reader, size int) (*Node, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidNode, err)
	}
	return Decode(buf)
}

func decodeLink(b []byte) (Link, error) {
	var link Link
	var haveHash bool

	for len(b) > 0 {
		num, typ, l := protowire.ConsumeTag(b)
		if l < 0 {
			return Link{}, fmt.Errorf("%w: link: %w", ErrInvalidNode, protowire.ParseError(l))
		}
		b = b[l:]

		switch num {
		case fieldLinkHash:
			if haveHash {
				return Link{}, fmt.Errorf("%w: duplicate link Hash", ErrInvalidNode)
			}
			if link.Name != nil || link.Tsize != nil {
				return Link{}, fmt.Errorf("%w: link Hash after Name or Tsize", ErrInvalidNode)
			}
			if typ != protowire.BytesType {
				return Link{}, fmt.Errorf("%w: link Hash wire type %d", ErrInvalidNode, typ)
			}
			v, l := protowire.ConsumeBytes(b)
			if l < 0 {
				return Link{}, fmt.Errorf("%w: link Hash: %w", ErrInvalidNode, protowire.ParseError(l))
			}
			b = b[l:]
			c, n, err := contentid.FromBytes(v)
			if err != nil {
				return Link{}, fmt.Errorf("%w: link Hash: %w", ErrInvalidNode, err)
			}
			if n != len(v) {
				return Link{}, fmt.Errorf("%w: link Hash has %d trailing bytes", ErrInvalidNode, len(v)-n)
			}
			link.Hash = c
			haveHash = true

		case fieldLinkName:
			if link.Name != nil {
				return Link{}, fmt.Errorf("%w: duplicate link Name", ErrInvalidNode)
			}
			if link.Tsize != nil {
				return Link{}, fmt.Errorf("%w: link Name after Tsize", ErrInvalidNode)
			}
			if typ != protowire.BytesType {
				return Link{}, fmt.Errorf("%w: link Name wire type %d", ErrInvalidNode, typ)
			}
			v, l := protowire.ConsumeBytes(b)
			if l < 0 {
				return Link{}, fmt.Errorf("%w: link Name: %w", ErrInvalidNode, protowire.ParseError(l))
			}
			b = b[l:]
			name := string(v)
			link.Name = &name

		case fieldLinkTsize:
			if link.Tsize != nil {
				return Link{}, fmt.Errorf("%w: duplicate link Tsize", ErrInvalidNode)
			}
			if typ != protowire.VarintType {
				return Link{}, fmt.Errorf("%w: link Tsize wire type %d", ErrInvalidNode, typ)
			}
			v, l := protowire.ConsumeVarint(b)
			if l < 0 {
				return Link{}, fmt.Errorf("%w: link Tsize: %w", ErrInvalidNode, protowire.ParseError(l))
			}
			b = b[l:]
			link.Tsize = &v

		default:
			return Link{}, fmt.Errorf("%w: unknown link field %d", ErrInvalidNode, num)
		}
	}
	if !haveHash {
		return Link{}, fmt.Errorf("%w: link without Hash", ErrInvalidNode)
	}
	return link, nil
}

// SortLinks orders links by Name bytes, keeping the relative order of
// equal names. A missing name sorts as the empty string.
func SortLinks(links []Link) {
	sort.SliceStable(links, func(i, j int) bool {
		return bytes.Compare([]byte(linkName(links[i])), []byte(linkName(links[j]))) < 0
	})
}

func linkName(l Link) string {
	if l.Name == nil {
		return ""
	}
	return *l.Name
}

func linkSize(l Link) int {
	size := protowire.SizeTag(fieldLinkHash) + protowire.SizeBytes(l.Hash.ByteLen())
	if l.Name != nil {
		size += protowire.SizeTag(fieldLinkName) + protowire.SizeBytes(len(*l.Name))
	}
	if l.Tsize != nil {
		size += protowire.SizeTag(fieldLinkTsize) + protowire.SizeVarint(*l.Tsize)
	}
	return size
}

// Size returns the encoded length of n.
func (n *Node) Size() int {
	size := 0
	for _, l := range n.Links {
		size += protowire.SizeTag(fieldNodeLinks) + protowire.SizeBytes(linkSize(l))
	}
	if n.HasData {
		size += protowire.SizeTag(fieldNodeData) + protowire.SizeBytes(len(n.Data))
	}
	return size
}

// Encode returns the canonical encoding of n. The links of n are sorted in
// place.
func Encode(n *Node) ([]byte, error) {
	for i, l := range n.Links {
		if !l.Hash.Defined() {
			return nil, fmt.Errorf("%w: link %d has no Hash", ErrInvalidNode, i)
		}
	}
	SortLinks(n.Links)

	size := n.Size()
	buf := make([]byte, 0, size)
	for _, l := range n.Links {
		buf = protowire.AppendTag(buf, fieldNodeLinks, protowire.BytesType)
		buf = protowire.AppendVarint(buf, uint64(linkSize(l)))
		buf = protowire.AppendTag(buf, fieldLinkHash, protowire.BytesType)
		buf = protowire.AppendBytes(buf, l.Hash.Bytes())
		if l.Name != nil {
			buf = protowire.AppendTag(buf, fieldLinkName, protowire.BytesType)
			buf = protowire.AppendString(buf, *l.Name)
		}
		if l.Tsize != nil {
			buf = protowire.AppendTag(buf, fieldLinkTsize, protowire.VarintType)
			buf = protowire.AppendVarint(buf, *l.Tsize)
		}
	}
	if n.HasData {
		buf = protowire.AppendTag(buf, fieldNodeData, protowire.BytesType)
		buf = protowire.AppendBytes(buf, n.Data)
	}
	if len(buf) != size {
		return nil, fmt.Errorf("%w: encoded %d bytes, sized %d", ErrInvalidNode, len(buf), size)
	}
	return buf, nil
}

// Sum encodes n and returns its version 0 identifier along with the bytes.
func Sum(n *Node) (cid.Cid, []byte, error) {
	b, err := Encode(n)
	if err != nil {
		return cid.Undef, nil, err
	}
	c, err := contentid.Sum(b, 0, contentid.DagPB)
	if err != nil {
		return cid.Undef, nil, err
	}
	return c, b, nil
}
