// Package blockstore holds raw blocks addressed by their content
// identifiers. Every Put checks the bytes against the identifier, so a
// Get always returns bytes that hash to what was asked for.
package blockstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/ipfs/go-cid"

	"github.com/forestrie/go-repocar/contentid"
)

type Getter interface {
	// Get returns the raw bytes of the block or ErrBlockNotFound.
	Get(ctx context.Context, c cid.Cid) ([]byte, error)
}

type Putter interface {
	// Put stores data under c. Implementations reject data that does not
	// hash to c.
	Put(ctx context.Context, c cid.Cid, data []byte) error
}

type Store interface {
	Getter
	Putter
	Has(ctx context.Context, c cid.Cid) (bool, error)
}

func checkBlock(c cid.Cid, data []byte) error {
	if !contentid.Verify(data, c) {
		return fmt.Errorf("%w: %s", ErrBlockHashMismatch, contentid.Encode(c))
	}
	return nil
}

// Memory is a map backed Store, safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	blocks map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{blocks: make(map[string][]byte)}
}

func (m *Memory) Get(ctx context.Context, c cid.Cid) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blocks[c.KeyString()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, contentid.Encode(c))
	}
	return b, nil
}

func (m *Memory) Has(ctx context.Context, c cid.Cid) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blocks[c.KeyString()]
	return ok, nil
}

func (m *Memory) Put(ctx context.Context, c cid.Cid, data []byte) error {
	if err := checkBlock(c, data); err != nil {
		return err
	}
	cpy := append([]byte(nil), data...)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocks[c.KeyString()] = cpy
	return nil
}

// Len returns the number of stored blocks.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blocks)
}
