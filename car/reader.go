package car

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/forestrie/go-repocar/contentid"
	"github.com/forestrie/go-repocar/varint"
)

// Reader reads an archive held in a seekable stream. Every call to Blocks
// starts again from the beginning of the stream.
type Reader struct {
	rs     io.ReadSeeker
	opts   ReaderOptions
	header Header
	closer io.Closer
}

// NewReader reads and validates the header of rs.
func NewReader(rs io.ReadSeeker, opts ...ReaderOption) (*Reader, error) {
	r := &Reader{
		rs:   rs,
		opts: NewReaderOptions(opts...),
	}
	br, err := r.rewind()
	if err != nil {
		return nil, err
	}
	if r.header, err = DecodeHeader(br, r.opts.maxHeaderSize); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reader) Header() Header { return r.header }

// Close closes the underlying file when the reader was created by Open.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

func (r *Reader) rewind() (*bufio.Reader, error) {
	if _, err := r.rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return bufio.NewReader(r.rs), nil
}

// Blocks returns an iterator positioned at the first frame.
func (r *Reader) Blocks() (*BlockIterator, error) {
	br, err := r.rewind()
	if err != nil {
		return nil, err
	}
	if _, err := DecodeHeader(br, r.opts.maxHeaderSize); err != nil {
		return nil, err
	}
	return &BlockIterator{br: br, opts: r.opts}, nil
}

// BlockIterator yields the decodable blocks of an archive in stream order.
//
//	it, err := r.Blocks()
//	for it.Next() {
//		blk := it.Block()
//	}
//	if err := it.Err(); err != nil {
//	}
type BlockIterator struct {
	br      *bufio.Reader
	opts    ReaderOptions
	cur     Block
	err     error
	done    bool
	skipped int
}

// Next advances to the next good block. It returns false at the end of the
// stream or on a stream level failure, see Err.
func (it *BlockIterator) Next() bool {
	for !it.done {
		frameLen, err := varint.DecodeFrom(it.br)
		if errors.Is(err, io.EOF) {
			it.done = true
			return false
		}
		if err != nil {
			return it.fail(fmt.Errorf("%w: length: %w", ErrTruncatedFrame, err))
		}
		if frameLen == 0 {
			it.skipped++
			it.opts.debugf("car: skipping empty frame")
			continue
		}
		if frameLen > it.opts.maxBlockSize {
			return it.fail(fmt.Errorf("%w: %d > %d", ErrBlockTooLarge, frameLen, it.opts.maxBlockSize))
		}
		frame := make([]byte, frameLen)
		if _, err := io.ReadFull(it.br, frame); err != nil {
			return it.fail(fmt.Errorf("%w: %w", ErrTruncatedFrame, err))
		}

		blk, err := decodeFrame(frame, !it.opts.noVerify)
		if err != nil {
			it.skipped++
			it.opts.debugf("car: skipping frame %s: %v", frameLabel(frame), err)
			continue
		}
		it.cur = blk
		return true
	}
	return false
}

func (it *BlockIterator) fail(err error) bool {
	it.err = err
	it.done = true
	it.cur = Block{}
	return false
}

// Block returns the block found by the last successful Next.
func (it *BlockIterator) Block() Block { return it.cur }

// Err returns the stream level failure that ended iteration, if any.
func (it *BlockIterator) Err() error { return it.err }

// Skipped counts frames dropped because they failed verification or
// decoding.
func (it *BlockIterator) Skipped() int { return it.skipped }

func frameLabel(frame []byte) string {
	c, _, err := contentid.FromBytes(frame)
	if err != nil {
		return "<unreadable cid>"
	}
	return contentid.Encode(c)
}
