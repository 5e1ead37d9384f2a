package mst

import (
	"context"
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"

	"github.com/forestrie/go-repocar/blockstore"
	"github.com/forestrie/go-repocar/contentid"
	"github.com/forestrie/go-repocar/dagcbor"
)

// valueGetter is implemented by sources that keep blocks decoded, such as
// car.Archive.
type valueGetter interface {
	GetValue(ctx context.Context, c cid.Cid) (dagcbor.Value, error)
}

// LeafFunc is called for each entry in key order. Returning an error stops
// the walk and Walk returns that error.
type LeafFunc func(key string, value cid.Cid) error

type Walker struct {
	src  blockstore.Getter
	opts WalkOptions
}

func NewWalker(src blockstore.Getter, opts ...WalkOption) *Walker {
	return &Walker{src: src, opts: NewWalkOptions(opts...)}
}

// Value fetches and decodes the dag-cbor block c.
func (w *Walker) Value(ctx context.Context, c cid.Cid) (dagcbor.Value, error) {
	if vg, ok := w.src.(valueGetter); ok {
		return vg.GetValue(ctx, c)
	}
	raw, err := w.src.Get(ctx, c)
	if err != nil {
		return nil, err
	}
	if c.Type() != contentid.DagCBOR {
		return nil, fmt.Errorf("%s: codec %#x is not dag-cbor", contentid.Encode(c), c.Type())
	}
	return dagcbor.Decode(raw)
}

// Walk visits every entry reachable from the node root.
func (w *Walker) Walk(ctx context.Context, root cid.Cid, fn LeafFunc) error {
	visited := make(map[cid.Cid]struct{})
	return w.walkNode(ctx, root, 0, visited, fn)
}

func (w *Walker) walkNode(ctx context.Context, c cid.Cid, depth int, visited map[cid.Cid]struct{}, fn LeafFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth > w.opts.maxDepth {
		w.opts.debugf("mst: skipping %s: deeper than %d", contentid.Encode(c), w.opts.maxDepth)
		return nil
	}
	if _, seen := visited[c]; seen {
		w.opts.debugf("mst: skipping %s: already visited", contentid.Encode(c))
		return nil
	}
	visited[c] = struct{}{}

	v, err := w.Value(ctx, c)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		w.opts.debugf("mst: skipping node %s: %v", contentid.Encode(c), err)
		return nil
	}
	nd, err := DecodeNode(v)
	if err != nil {
		w.opts.debugf("mst: skipping node %s: %v", contentid.Encode(c), err)
		return nil
	}
	keys, err := nd.Keys()
	if err != nil {
		w.opts.debugf("mst: skipping node %s: %v", contentid.Encode(c), err)
		return nil
	}

	if nd.Left != nil {
		if err := w.walkNode(ctx, *nd.Left, depth+1, visited, fn); err != nil {
			return err
		}
	}
	for i, e := range nd.Entries {
		if err := fn(keys[i], e.Value); err != nil {
			return err
		}
		if e.Tree != nil {
			if err := w.walkNode(ctx, *e.Tree, depth+1, visited, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Get finds key by descending from the node root, visiting one node per
// level.
func (w *Walker) Get(ctx context.Context, root cid.Cid, key string) (cid.Cid, error) {
	c := root
	for depth := 0; depth <= w.opts.maxDepth; depth++ {
		v, err := w.Value(ctx, c)
		if err != nil {
			return cid.Undef, err
		}
		nd, err := DecodeNode(v)
		if err != nil {
			return cid.Undef, err
		}
		keys, err := nd.Keys()
		if err != nil {
			return cid.Undef, err
		}

		// next is the subtree that would hold key: the left link when key
		// sorts before every entry, else the right link of the last entry
		// below key.
		next := nd.Left
		for i, k := range keys {
			if k == key {
				return nd.Entries[i].Value, nil
			}
			if k > key {
				break
			}
			next = nd.Entries[i].Tree
		}
		if next == nil {
			return cid.Undef, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
		}
		c = *next
	}
	return cid.Undef, fmt.Errorf("%w: %s: tree deeper than %d", ErrKeyNotFound, key, w.opts.maxDepth)
}

func isMissing(err error) bool {
	return errors.Is(err, blockstore.ErrBlockNotFound)
}
