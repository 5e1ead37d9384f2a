package blockstore

import "github.com/datatrails/go-datatrails-common/logger"

// BadgerOptions configures NewBadger.
type BadgerOptions struct {
	inMemory   bool
	syncWrites bool
	readOnly   bool
	log        logger.Logger
}

type BadgerOption func(*BadgerOptions)

// WithInMemory keeps the database in memory. The directory is ignored.
func WithInMemory() BadgerOption {
	return func(opts *BadgerOptions) {
		opts.inMemory = true
	}
}

// WithSyncWrites fsyncs every write batch.
func WithSyncWrites(sync bool) BadgerOption {
	return func(opts *BadgerOptions) {
		opts.syncWrites = sync
	}
}

func WithReadOnly() BadgerOption {
	return func(opts *BadgerOptions) {
		opts.readOnly = true
	}
}

// WithLogger routes badger's own logging through log. Without it badger
// logging is discarded.
func WithLogger(log logger.Logger) BadgerOption {
	return func(opts *BadgerOptions) {
		opts.log = log
	}
}
