package car

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Open opens the archive at path. Files starting with the zstd frame magic
// are decompressed into memory first, bounded by the decompressed size limit.
// The caller must Close the returned reader.
func Open(path string, opts ...ReaderOption) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	options := NewReaderOptions(opts...)

	magic, err := bufio.NewReader(f).Peek(len(zstdMagic))
	if err != nil && err != io.EOF {
		f.Close()
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}

	if !bytes.Equal(magic, zstdMagic) {
		r, err := NewReader(f, opts...)
		if err != nil {
			f.Close()
			return nil, err
		}
		r.closer = f
		return r, nil
	}

	defer f.Close()
	data, err := Decompress(f, options.maxDecompressedSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewReader(bytes.NewReader(data), opts...)
}

// Decompress reads a zstd stream that expands to at most limit bytes.
func Decompress(r io.Reader, limit int64) ([]byte, error) {
	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	data, err := io.ReadAll(io.LimitReader(dec, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrArchiveTooLarge, limit)
	}
	return data, nil
}

// Compress compresses an archive with zstd.
func Compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}
