package mst

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forestrie/go-repocar/blockstore"
	"github.com/forestrie/go-repocar/car"
	"github.com/forestrie/go-repocar/contentid"
	"github.com/forestrie/go-repocar/dagcbor"
	"github.com/forestrie/go-repocar/repotesting"
)

func newFixture(t *testing.T) *repotesting.RepoFixture {
	return repotesting.NewRepoFixture(t, repotesting.NewP256Signer(t))
}

func decodeArchive(t *testing.T, data []byte) *car.Archive {
	a, err := car.DecodeBytes(data)
	require.NoError(t, err)
	return a
}

func TestWalkOrder(t *testing.T) {
	f := newFixture(t)
	a := decodeArchive(t, f.Archive())

	var keys []string
	var values []cid.Cid
	err := NewWalker(a).Walk(context.Background(), f.TreeRoot, func(key string, v cid.Cid) error {
		keys = append(keys, key)
		values = append(values, v)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, repotesting.FixtureKeys, keys)
	for i, k := range keys {
		assert.True(t, values[i].Equals(f.Records[k]), k)
	}
}

func TestWalkFromBlockstore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	store := blockstore.NewMemory()
	_, _, err := car.Import(ctx, store, bytes.NewReader(f.Archive()))
	require.NoError(t, err)

	var keys []string
	err = NewWalker(store).Walk(ctx, f.TreeRoot, func(key string, _ cid.Cid) error {
		keys = append(keys, key)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, repotesting.FixtureKeys, keys)
}

func TestRecords(t *testing.T) {
	f := newFixture(t)
	records, err := RecordsFromReader(context.Background(), bytes.NewReader(f.Archive()))
	require.NoError(t, err)
	require.Len(t, records, len(repotesting.FixtureKeys))

	for i, r := range records {
		key := repotesting.FixtureKeys[i]
		assert.Equal(t, key, r.Key)
		assert.Equal(t, "at://"+repotesting.FixtureDID+"/"+key, r.URI)
		assert.True(t, r.CID.Equals(f.Records[key]))
		assert.Equal(t, dagcbor.Normalize(repotesting.RecordValue(key)), r.Value)
	}
	assert.Equal(t, "app.bsky.actor.profile", records[0].Collection)
	assert.Equal(t, "self", records[0].RKey)
}

func TestRecordsMissingValue(t *testing.T) {
	f := newFixture(t)
	missing := repotesting.FixtureKeys[3]
	a := decodeArchive(t, f.ArchiveWithout(f.Records[missing]))

	records, err := Records(context.Background(), a)
	require.NoError(t, err)
	require.Len(t, records, len(repotesting.FixtureKeys))
	for _, r := range records {
		if r.Key == missing {
			assert.Nil(t, r.Value)
			continue
		}
		assert.NotNil(t, r.Value, r.Key)
	}
}

func TestWalkSkipsMissingSubtree(t *testing.T) {
	tc := repotesting.NewTestContext(t, repotesting.TestConfig{TestLabelPrefix: "TestWalkSkipsMissingSubtree"})
	f := newFixture(t)
	a := decodeArchive(t, f.ArchiveWithout(f.Nodes["R2"]))

	records, err := Records(context.Background(), a, WithWalkLogger(tc.Log))
	require.NoError(t, err)
	var keys []string
	for _, r := range records {
		keys = append(keys, r.Key)
	}
	assert.Equal(t, repotesting.FixtureKeys[:5], keys)
}

func TestWalkSkipsMalformedNode(t *testing.T) {
	ctx := context.Background()
	b := repotesting.NewArchiveBuilder(t)
	val := b.AddNative(map[string]any{"x": 1})
	bad := b.AddNative(map[string]any{"e": "not a list"})
	root := b.Add(repotesting.BuildNode(&bad, []repotesting.FixtureEntry{{Key: "a/1", Value: val}}))
	a := decodeArchive(t, b.Bytes(root))

	var keys []string
	err := NewWalker(a).Walk(ctx, root, func(key string, _ cid.Cid) error {
		keys = append(keys, key)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a/1"}, keys)
}

func TestWalkCycle(t *testing.T) {
	ctx := context.Background()
	store := blockstore.NewMemory()
	val, err := contentid.Sum([]byte("v"), 1, contentid.Raw)
	require.NoError(t, err)

	// A content addressed loop cannot be built, so reach the same node
	// twice instead; the visited set guards both cases.
	leaf := repotesting.BuildNode(nil, []repotesting.FixtureEntry{{Key: "k/2", Value: val}})
	leafBytes, err := dagcbor.Encode(leaf)
	require.NoError(t, err)
	leafCID, err := contentid.Sum(leafBytes, 1, contentid.DagCBOR)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, leafCID, leafBytes))

	root := repotesting.BuildNode(&leafCID, []repotesting.FixtureEntry{{Key: "k/3", Value: val, Tree: &leafCID}})
	rootBytes, err := dagcbor.Encode(root)
	require.NoError(t, err)
	rootCID, err := contentid.Sum(rootBytes, 1, contentid.DagCBOR)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, rootCID, rootBytes))

	var keys []string
	err = NewWalker(store).Walk(ctx, rootCID, func(key string, _ cid.Cid) error {
		keys = append(keys, key)
		return nil
	})
	require.NoError(t, err)
	// the second reference to leaf is not followed
	assert.Equal(t, []string{"k/2", "k/3"}, keys)
}

func TestWalkMaxDepth(t *testing.T) {
	f := newFixture(t)
	a := decodeArchive(t, f.Archive())

	var keys []string
	err := NewWalker(a, WithMaxDepth(0)).Walk(context.Background(), f.TreeRoot, func(key string, _ cid.Cid) error {
		keys = append(keys, key)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{repotesting.FixtureKeys[2], repotesting.FixtureKeys[4]}, keys)
}

func TestWalkStops(t *testing.T) {
	f := newFixture(t)
	a := decodeArchive(t, f.Archive())
	stop := errors.New("stop")

	n := 0
	err := NewWalker(a).Walk(context.Background(), f.TreeRoot, func(string, cid.Cid) error {
		n++
		if n == 3 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 3, n)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = NewWalker(a).Walk(ctx, f.TreeRoot, func(string, cid.Cid) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	w := NewWalker(decodeArchive(t, f.Archive()))

	for _, key := range repotesting.FixtureKeys {
		got, err := w.Get(ctx, f.TreeRoot, key)
		require.NoError(t, err, key)
		assert.True(t, got.Equals(f.Records[key]), key)
	}
	for _, key := range []string{"a", "app.bsky.feed.post/b2", "app.bsky.feed.post/zz", "zzz"} {
		_, err := w.Get(ctx, f.TreeRoot, key)
		assert.ErrorIs(t, err, ErrKeyNotFound, key)
	}
}

func TestDecodeCommit(t *testing.T) {
	f := newFixture(t)
	c, err := DecodeCommit(f.CommitMap)
	require.NoError(t, err)
	assert.Equal(t, repotesting.FixtureDID, c.DID)
	assert.Equal(t, int64(3), c.Version)
	assert.Equal(t, repotesting.FixtureRev, c.Rev)
	assert.True(t, c.Data.Equals(f.TreeRoot))
	assert.Nil(t, c.Prev)
	assert.NotEmpty(t, c.Sig)

	_, err = DecodeCommit(dagcbor.Map{"did": dagcbor.String("did:plc:x")})
	assert.ErrorIs(t, err, ErrInvalidCommit)
	_, err = DecodeCommit(dagcbor.List{})
	assert.ErrorIs(t, err, ErrInvalidCommit)
}

func TestNodeKeys(t *testing.T) {
	val, err := contentid.Sum([]byte("v"), 1, contentid.Raw)
	require.NoError(t, err)

	node := repotesting.BuildNode(nil, []repotesting.FixtureEntry{
		{Key: "app.bsky.feed.post/aaa", Value: val},
		{Key: "app.bsky.feed.post/aab", Value: val},
		{Key: "app.bsky.graph.follow/x", Value: val},
	})
	nd, err := DecodeNode(node)
	require.NoError(t, err)
	assert.Equal(t, 0, nd.Entries[0].PrefixLen)
	assert.Equal(t, len("app.bsky.feed.post/aa"), nd.Entries[1].PrefixLen)
	assert.Equal(t, []byte("b"), nd.Entries[1].KeySuffix)

	keys, err := nd.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"app.bsky.feed.post/aaa", "app.bsky.feed.post/aab", "app.bsky.graph.follow/x"}, keys)

	// null links are dropped on encoding and read back as absent
	enc, err := dagcbor.Encode(nd.Encode())
	require.NoError(t, err)
	v, err := dagcbor.Decode(enc)
	require.NoError(t, err)
	assert.NotContains(t, v.(dagcbor.Map), "l")
	back, err := DecodeNode(v)
	require.NoError(t, err)
	assert.Equal(t, nd, back)

	nd.Entries[0].PrefixLen = 3
	_, err = nd.Keys()
	assert.ErrorIs(t, err, ErrInvalidNode)
}
