package blockstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/dgraph-io/badger/v4"
	"github.com/ipfs/go-cid"

	"github.com/forestrie/go-repocar/contentid"
)

// Badger is a Store persisted in a badger database. Keys are the binary
// content identifiers.
type Badger struct {
	db *badger.DB
}

func NewBadger(dir string, opts ...BadgerOption) (*Badger, error) {
	var options BadgerOptions
	for _, o := range opts {
		o(&options)
	}

	bopts := badger.DefaultOptions(dir)
	if options.inMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts = bopts.WithSyncWrites(options.syncWrites).WithReadOnly(options.readOnly)
	if options.log != nil {
		bopts = bopts.WithLogger(badgerLogger{log: options.log})
	} else {
		bopts = bopts.WithLogger(nil)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open block store %q: %w", dir, err)
	}
	return &Badger{db: db}, nil
}

func (s *Badger) Close() error {
	return s.db.Close()
}

func (s *Badger) Get(ctx context.Context, c cid.Cid) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(c.Bytes())
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, contentid.Encode(c))
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Badger) Has(ctx context.Context, c cid.Cid) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(c.Bytes())
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Badger) Put(ctx context.Context, c cid.Cid, data []byte) error {
	if err := checkBlock(c, data); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(c.Bytes(), data)
	})
}

// Block is a verified identifier and its bytes.
type Block struct {
	CID  cid.Cid
	Data []byte
}

// PutMany writes blocks in a single batch. Nothing is written if any block
// fails verification.
func (s *Badger) PutMany(ctx context.Context, blocks []Block) error {
	for _, b := range blocks {
		if err := checkBlock(b.CID, b.Data); err != nil {
			return err
		}
	}
	wb := s.db.NewWriteBatch()
	for _, b := range blocks {
		if err := ctx.Err(); err != nil {
			wb.Cancel()
			return err
		}
		if err := wb.Set(b.CID.Bytes(), b.Data); err != nil {
			wb.Cancel()
			return err
		}
	}
	return wb.Flush()
}

// badgerLogger adapts logger.Logger to badger.Logger.
type badgerLogger struct {
	log logger.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.log.Infof("badger error: "+format, args...)
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.log.Infof("badger warning: "+format, args...)
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.log.Debugf(format, args...)
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.log.Debugf(format, args...)
}
