package mst

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ipfs/go-cid"

	"github.com/forestrie/go-repocar/car"
	"github.com/forestrie/go-repocar/contentid"
	"github.com/forestrie/go-repocar/dagcbor"
)

// Record is one leaf of a repository. Value is the normalized record, or
// nil when the archive does not include the record block.
type Record struct {
	Key        string
	Collection string
	RKey       string
	URI        string
	CID        cid.Cid
	Value      any
}

func newRecord(did, key string, c cid.Cid) Record {
	collection, rkey, _ := strings.Cut(key, "/")
	return Record{
		Key:        key,
		Collection: collection,
		RKey:       rkey,
		URI:        "at://" + did + "/" + key,
		CID:        c,
	}
}

// Commit fetches and decodes the commit block c.
func (w *Walker) Commit(ctx context.Context, c cid.Cid) (*Commit, error) {
	v, err := w.Value(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidCommit, contentid.Encode(c), err)
	}
	return DecodeCommit(v)
}

// WalkRecords calls fn for every record under the commit block, in key
// order. Records are produced lazily, one value block at a time.
func (w *Walker) WalkRecords(ctx context.Context, commitCID cid.Cid, fn func(Record) error) error {
	commit, err := w.Commit(ctx, commitCID)
	if err != nil {
		return err
	}
	return w.Walk(ctx, commit.Data, func(key string, val cid.Cid) error {
		rec := newRecord(commit.DID, key, val)
		v, err := w.Value(ctx, val)
		switch {
		case err == nil:
			rec.Value = dagcbor.Normalize(v)
		case isMissing(err):
		default:
			w.opts.debugf("mst: record %s value %s: %v", rec.URI, contentid.Encode(val), err)
		}
		return fn(rec)
	})
}

// Records collects every record of a decoded archive, rooted at its first
// root.
func Records(ctx context.Context, a *car.Archive, opts ...WalkOption) ([]Record, error) {
	root, ok := a.Root()
	if !ok {
		return nil, ErrNoRoot
	}
	var out []Record
	err := NewWalker(a, opts...).WalkRecords(ctx, root, func(r Record) error {
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RecordsFromReader decodes the archive in rs and collects its records.
func RecordsFromReader(ctx context.Context, rs io.ReadSeeker, opts ...WalkOption) ([]Record, error) {
	options := NewWalkOptions(opts...)
	var readerOpts []car.ReaderOption
	if options.log != nil {
		readerOpts = append(readerOpts, car.WithLogger(options.log))
	}
	a, err := car.Decode(rs, readerOpts...)
	if err != nil {
		return nil, err
	}
	return Records(ctx, a, opts...)
}
