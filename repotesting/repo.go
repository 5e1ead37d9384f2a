package repotesting

import (
	"strings"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/require"

	"github.com/forestrie/go-repocar/commit"
	"github.com/forestrie/go-repocar/dagcbor"
)

const (
	FixtureDID = "did:plc:w4xbfzo7kqfes5zb7r6qv3rw"
	FixtureRev = "3l3qo2vutsw2b"
)

// FixtureEntry is one entry of a tree node before prefix compression.
type FixtureEntry struct {
	Key   string
	Value cid.Cid
	Tree  *cid.Cid
}

// BuildNode returns the tree node map for entries, which must be sorted.
func BuildNode(left *cid.Cid, entries []FixtureEntry) dagcbor.Map {
	list := make(dagcbor.List, len(entries))
	prev := ""
	for i, e := range entries {
		p := commonPrefix(prev, e.Key)
		entry := dagcbor.Map{
			"p": dagcbor.Int(p),
			"k": dagcbor.Bytes(e.Key[p:]),
			"v": dagcbor.NewLink(e.Value),
			"t": dagcbor.Null{},
		}
		if e.Tree != nil {
			entry["t"] = dagcbor.NewLink(*e.Tree)
		}
		list[i] = entry
		prev = e.Key
	}
	node := dagcbor.Map{"l": dagcbor.Null{}, "e": list}
	if left != nil {
		node["l"] = dagcbor.NewLink(*left)
	}
	return node
}

func commonPrefix(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

// RepoFixture is a signed repository of seven records held in a four node
// tree:
//
//	root: left=L, [post/b1 -> R1, post/d1 -> R2]
//	L:    [actor.profile/self, feed.like/a2]
//	R1:   [post/c1]
//	R2:   [post/e1, post/e2]
type RepoFixture struct {
	DID       string
	Builder   *ArchiveBuilder
	Commit    cid.Cid
	CommitMap dagcbor.Map
	TreeRoot  cid.Cid
	Nodes     map[string]cid.Cid
	// Keys are the record keys in walk order.
	Keys    []string
	Records map[string]cid.Cid
	Signer  commit.Signer
}

// FixtureKeys are the record keys of RepoFixture in ascending order.
var FixtureKeys = []string{
	"app.bsky.actor.profile/self",
	"app.bsky.feed.like/a2",
	"app.bsky.feed.post/b1",
	"app.bsky.feed.post/c1",
	"app.bsky.feed.post/d1",
	"app.bsky.feed.post/e1",
	"app.bsky.feed.post/e2",
}

// RecordValue is the record stored under key in RepoFixture.
func RecordValue(key string) dagcbor.Map {
	collection, rkey, _ := strings.Cut(key, "/")
	return dagcbor.Map{
		"$type":     dagcbor.String(collection),
		"text":      dagcbor.String("record " + rkey),
		"createdAt": dagcbor.String("2024-09-01T12:00:00.000Z"),
	}
}

func NewRepoFixture(t *testing.T, signer commit.Signer) *RepoFixture {
	f := &RepoFixture{
		DID:     FixtureDID,
		Builder: NewArchiveBuilder(t),
		Keys:    FixtureKeys,
		Records: make(map[string]cid.Cid),
		Nodes:   make(map[string]cid.Cid),
		Signer:  signer,
	}
	b := f.Builder

	// The commit goes first so it is the first frame, as exporters write it.
	// Its identifier depends on the tree, so it is filled in last.
	for _, k := range FixtureKeys {
		f.Records[k] = b.Add(RecordValue(k))
	}
	entry := func(key string, tree *cid.Cid) FixtureEntry {
		return FixtureEntry{Key: key, Value: f.Records[key], Tree: tree}
	}

	f.Nodes["L"] = b.Add(BuildNode(nil, []FixtureEntry{entry(FixtureKeys[0], nil), entry(FixtureKeys[1], nil)}))
	f.Nodes["R1"] = b.Add(BuildNode(nil, []FixtureEntry{entry(FixtureKeys[3], nil)}))
	f.Nodes["R2"] = b.Add(BuildNode(nil, []FixtureEntry{entry(FixtureKeys[5], nil), entry(FixtureKeys[6], nil)}))
	l, r1, r2 := f.Nodes["L"], f.Nodes["R1"], f.Nodes["R2"]
	f.TreeRoot = b.Add(BuildNode(&l, []FixtureEntry{entry(FixtureKeys[2], &r1), entry(FixtureKeys[4], &r2)}))
	f.Nodes["root"] = f.TreeRoot

	unsigned := dagcbor.Map{
		"did":     dagcbor.String(f.DID),
		"version": dagcbor.Int(3),
		"data":    dagcbor.NewLink(f.TreeRoot),
		"rev":     dagcbor.String(FixtureRev),
		"prev":    dagcbor.Null{},
	}
	signed, err := commit.Sign(unsigned, signer)
	require.NoError(t, err)
	f.CommitMap = signed
	f.Commit = b.Add(signed)

	// move the commit frame to the front
	last := b.Frames[len(b.Frames)-1]
	b.Frames = append([]Frame{last}, b.Frames[:len(b.Frames)-1]...)
	return f
}

// Archive returns the complete archive rooted at the commit.
func (f *RepoFixture) Archive() []byte {
	return f.Builder.Bytes(f.Commit)
}

// ArchiveWithout returns the archive leaving out the given blocks.
func (f *RepoFixture) ArchiveWithout(omit ...cid.Cid) []byte {
	return f.Builder.BytesWithout([]cid.Cid{f.Commit}, omit...)
}
