package blockstore

import (
	"context"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forestrie/go-repocar/contentid"
)

func rawBlock(t *testing.T, data string) Block {
	t.Helper()
	c, err := contentid.Sum([]byte(data), 1, contentid.Raw)
	require.NoError(t, err)
	return Block{CID: c, Data: []byte(data)}
}

func testStore(t *testing.T, s Store) {
	ctx := context.Background()
	a := rawBlock(t, "alpha")
	b := rawBlock(t, "beta")

	_, err := s.Get(ctx, a.CID)
	assert.ErrorIs(t, err, ErrBlockNotFound)
	has, err := s.Has(ctx, a.CID)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, s.Put(ctx, a.CID, a.Data))
	got, err := s.Get(ctx, a.CID)
	require.NoError(t, err)
	assert.Equal(t, a.Data, got)
	has, err = s.Has(ctx, a.CID)
	require.NoError(t, err)
	assert.True(t, has)

	err = s.Put(ctx, b.CID, a.Data)
	assert.ErrorIs(t, err, ErrBlockHashMismatch)
	_, err = s.Get(ctx, b.CID)
	assert.ErrorIs(t, err, ErrBlockNotFound)

	err = s.Put(ctx, cid.Undef, a.Data)
	assert.ErrorIs(t, err, ErrBlockHashMismatch)
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	testStore(t, m)
	assert.Equal(t, 1, m.Len())
}

func TestBadger(t *testing.T) {
	s, err := NewBadger("", WithInMemory())
	require.NoError(t, err)
	defer s.Close()
	testStore(t, s)
}

func TestBadgerPersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	a := rawBlock(t, "alpha")
	b := rawBlock(t, "beta")

	s, err := NewBadger(dir, WithSyncWrites(true))
	require.NoError(t, err)
	require.NoError(t, s.PutMany(ctx, []Block{a, b}))
	require.NoError(t, s.Close())

	s, err = NewBadger(dir)
	require.NoError(t, err)
	defer s.Close()
	for _, blk := range []Block{a, b} {
		got, err := s.Get(ctx, blk.CID)
		require.NoError(t, err)
		assert.Equal(t, blk.Data, got)
	}
}

func TestBadgerPutManyRejects(t *testing.T) {
	ctx := context.Background()
	s, err := NewBadger("", WithInMemory())
	require.NoError(t, err)
	defer s.Close()

	a := rawBlock(t, "alpha")
	bad := rawBlock(t, "beta")
	bad.Data = []byte("not beta")

	err = s.PutMany(ctx, []Block{a, bad})
	assert.ErrorIs(t, err, ErrBlockHashMismatch)
	has, err := s.Has(ctx, a.CID)
	require.NoError(t, err)
	assert.False(t, has)
}
