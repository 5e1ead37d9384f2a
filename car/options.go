package car

import "github.com/datatrails/go-datatrails-common/logger"

const (
	DefaultMaxBlockSize  = 2 << 20
	DefaultMaxHeaderSize = 1 << 20
	// DefaultMaxDecompressedSize bounds archives inflated by Open.
	DefaultMaxDecompressedSize = 1 << 30
)

// ReaderOptions configures archive readers.
type ReaderOptions struct {
	log logger.Logger

	maxBlockSize        uint64
	maxHeaderSize       uint64
	maxDecompressedSize int64

	noVerify bool
}

// NewReaderOptions applies opts over the defaults.
func NewReaderOptions(opts ...ReaderOption) ReaderOptions {
	options := ReaderOptions{
		maxBlockSize:        DefaultMaxBlockSize,
		maxHeaderSize:       DefaultMaxHeaderSize,
		maxDecompressedSize: DefaultMaxDecompressedSize,
	}
	for _, o := range opts {
		o(&options)
	}
	return options
}

type ReaderOption func(*ReaderOptions)

// WithLogger reports skipped blocks at debug level.
func WithLogger(log logger.Logger) ReaderOption {
	return func(opts *ReaderOptions) {
		opts.log = log
	}
}

// WithMaxBlockSize bounds the length of a single frame.
func WithMaxBlockSize(n uint64) ReaderOption {
	return func(opts *ReaderOptions) {
		opts.maxBlockSize = n
	}
}

func WithMaxHeaderSize(n uint64) ReaderOption {
	return func(opts *ReaderOptions) {
		opts.maxHeaderSize = n
	}
}

func WithMaxDecompressedSize(n int64) ReaderOption {
	return func(opts *ReaderOptions) {
		opts.maxDecompressedSize = n
	}
}

// WithoutVerify skips hashing block payloads. Blocks are still decoded.
func WithoutVerify() ReaderOption {
	return func(opts *ReaderOptions) {
		opts.noVerify = true
	}
}

func (o *ReaderOptions) debugf(format string, args ...any) {
	if o.log == nil {
		return
	}
	o.log.Debugf(format, args...)
}
