package mst

import (
	"fmt"

	"github.com/ipfs/go-cid"

	"github.com/forestrie/go-repocar/dagcbor"
)

type Entry struct {
	PrefixLen int
	KeySuffix []byte
	Value     cid.Cid
	Tree      *cid.Cid
}

type NodeData struct {
	Left    *cid.Cid
	Entries []Entry
}

// DecodeNode interprets a decoded block as a tree node.
func DecodeNode(v dagcbor.Value) (*NodeData, error) {
	m, ok := v.(dagcbor.Map)
	if !ok {
		return nil, fmt.Errorf("%w: %s, want map", ErrInvalidNode, kindOf(v))
	}
	left, err := optionalLink(m, "l")
	if err != nil {
		return nil, err
	}
	list, ok := m["e"].(dagcbor.List)
	if !ok {
		return nil, fmt.Errorf("%w: entries are %s, want list", ErrInvalidNode, kindOf(m["e"]))
	}
	nd := &NodeData{Left: left, Entries: make([]Entry, 0, len(list))}
	for i, ev := range list {
		em, ok := ev.(dagcbor.Map)
		if !ok {
			return nil, fmt.Errorf("%w: entry %d is %s", ErrInvalidNode, i, kindOf(ev))
		}
		p, ok := em.Int("p")
		if !ok || p < 0 {
			return nil, fmt.Errorf("%w: entry %d prefix length", ErrInvalidNode, i)
		}
		k, ok := em.Bytes("k")
		if !ok {
			return nil, fmt.Errorf("%w: entry %d key suffix", ErrInvalidNode, i)
		}
		val, ok := em.Link("v")
		if !ok {
			return nil, fmt.Errorf("%w: entry %d value link", ErrInvalidNode, i)
		}
		tree, err := optionalLink(em, "t")
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		nd.Entries = append(nd.Entries, Entry{
			PrefixLen: int(p),
			KeySuffix: k,
			Value:     val,
			Tree:      tree,
		})
	}
	return nd, nil
}

// Keys rebuilds the full keys of the node's entries.
func (nd *NodeData) Keys() ([]string, error) {
	keys := make([]string, len(nd.Entries))
	var prev []byte
	for i, e := range nd.Entries {
		if e.PrefixLen > len(prev) {
			return nil, fmt.Errorf("%w: entry %d prefix %d longer than previous key %d", ErrInvalidNode, i, e.PrefixLen, len(prev))
		}
		key := make([]byte, 0, e.PrefixLen+len(e.KeySuffix))
		key = append(key, prev[:e.PrefixLen]...)
		key = append(key, e.KeySuffix...)
		keys[i] = string(key)
		prev = key
	}
	return keys, nil
}

// Encode returns the node as a dag-cbor value. The inverse of DecodeNode.
func (nd *NodeData) Encode() dagcbor.Map {
	entries := make(dagcbor.List, len(nd.Entries))
	for i, e := range nd.Entries {
		entries[i] = dagcbor.Map{
			"p": dagcbor.Int(e.PrefixLen),
			"k": dagcbor.Bytes(e.KeySuffix),
			"v": dagcbor.NewLink(e.Value),
			"t": linkOrNull(e.Tree),
		}
	}
	return dagcbor.Map{"l": linkOrNull(nd.Left), "e": entries}
}

func optionalLink(m dagcbor.Map, key string) (*cid.Cid, error) {
	switch x := m[key].(type) {
	case nil, dagcbor.Null:
		return nil, nil
	case dagcbor.Link:
		c := x.CID
		return &c, nil
	default:
		return nil, fmt.Errorf("%w: %q is %s, want link or null", ErrInvalidNode, key, x.Kind())
	}
}

func linkOrNull(c *cid.Cid) dagcbor.Value {
	if c == nil {
		return dagcbor.Null{}
	}
	return dagcbor.NewLink(*c)
}

func kindOf(v dagcbor.Value) string {
	if v == nil {
		return "missing"
	}
	return v.Kind().String()
}
