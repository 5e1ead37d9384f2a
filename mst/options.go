package mst

import "github.com/datatrails/go-datatrails-common/logger"

const DefaultMaxDepth = 64

type WalkOptions struct {
	maxDepth int
	log      logger.Logger
}

type WalkOption func(*WalkOptions)

func NewWalkOptions(opts ...WalkOption) WalkOptions {
	options := WalkOptions{maxDepth: DefaultMaxDepth}
	for _, o := range opts {
		o(&options)
	}
	return options
}

// WithMaxDepth bounds how many nodes deep the walk descends.
func WithMaxDepth(depth int) WalkOption {
	return func(opts *WalkOptions) {
		opts.maxDepth = depth
	}
}

// WithWalkLogger reports skipped nodes and values at debug level.
func WithWalkLogger(log logger.Logger) WalkOption {
	return func(opts *WalkOptions) {
		opts.log = log
	}
}

func (o *WalkOptions) debugf(format string, args ...any) {
	if o.log == nil {
		return
	}
	o.log.Debugf(format, args...)
}
