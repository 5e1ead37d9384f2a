package car

import (
	"context"
	"io"

	"github.com/forestrie/go-repocar/blockstore"
)

const importBatchSize = 256

// batchPutter is implemented by stores that can write many blocks at once.
type batchPutter interface {
	PutMany(ctx context.Context, blocks []blockstore.Block) error
}

// Import streams the verified blocks of rs into dst without holding the
// whole archive in memory. It returns the number of blocks written and
// the number skipped.
func Import(ctx context.Context, dst blockstore.Putter, rs io.ReadSeeker, opts ...ReaderOption) (int, int, error) {
	r, err := NewReader(rs, opts...)
	if err != nil {
		return 0, 0, err
	}
	return r.Import(ctx, dst)
}

func (r *Reader) Import(ctx context.Context, dst blockstore.Putter) (int, int, error) {
	it, err := r.Blocks()
	if err != nil {
		return 0, 0, err
	}

	batcher, canBatch := dst.(batchPutter)
	var batch []blockstore.Block
	written := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := batcher.PutMany(ctx, batch); err != nil {
			return err
		}
		written += len(batch)
		batch = batch[:0]
		return nil
	}

	for it.Next() {
		if err := ctx.Err(); err != nil {
			return written, it.Skipped(), err
		}
		blk := it.Block()
		if !canBatch {
			if err := dst.Put(ctx, blk.CID, blk.Raw); err != nil {
				return written, it.Skipped(), err
			}
			written++
			continue
		}
		batch = append(batch, blockstore.Block{CID: blk.CID, Data: blk.Raw})
		if len(batch) >= importBatchSize {
			if err := flush(); err != nil {
				return written, it.Skipped(), err
			}
		}
	}
	if err := it.Err(); err != nil {
		return written, it.Skipped(), err
	}
	if canBatch {
		if err := flush(); err != nil {
			return written, it.Skipped(), err
		}
	}
	r.opts.debugf("car: imported %d blocks, skipped %d", written, it.Skipped())
	return written, it.Skipped(), nil
}
