package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forestrie/go-repocar/blockstore"
	"github.com/forestrie/go-repocar/car"
	"github.com/forestrie/go-repocar/commit"
	"github.com/forestrie/go-repocar/repotesting"
)

type cliFixture struct {
	repo *repotesting.RepoFixture
	path string
	did  string
}

func newCLIFixture(t *testing.T, compress bool) cliFixture {
	signer := repotesting.NewSecp256k1Signer(t)
	f := repotesting.NewRepoFixture(t, signer)
	data := f.Archive()
	name := "repo.car"
	if compress {
		var err error
		data, err = car.Compress(data)
		require.NoError(t, err)
		name += ".zst"
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	did, err := commit.FormatDIDKey(signer.Public())
	require.NoError(t, err)
	return cliFixture{repo: f, path: path, did: did}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	err := run(context.Background(), args, &out)
	return out.String(), err
}

func TestRunPrintsRecords(t *testing.T) {
	for _, compress := range []bool{false, true} {
		f := newCLIFixture(t, compress)
		out, err := runCLI(t, "--verify", f.did, f.path)
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, len(repotesting.FixtureKeys))
		for i, line := range lines {
			var rec recordLine
			require.NoError(t, json.Unmarshal([]byte(line), &rec))
			assert.Equal(t, "at://"+repotesting.FixtureDID+"/"+repotesting.FixtureKeys[i], rec.URI)
			assert.NotNil(t, rec.Value)
		}
	}
}

func TestRunCompact(t *testing.T) {
	f := newCLIFixture(t, false)
	out, err := runCLI(t, "--compact", f.path)
	require.NoError(t, err)
	assert.NotContains(t, out, `"value"`)
}

func TestRunVerifyFails(t *testing.T) {
	f := newCLIFixture(t, false)
	other, err := commit.FormatDIDKey(repotesting.NewSecp256k1Signer(t).Public())
	require.NoError(t, err)

	out, err := runCLI(t, "--verify", other, f.path)
	assert.ErrorIs(t, err, commit.ErrSignatureInvalid)
	assert.Empty(t, out)
}

func TestRunCommitDiag(t *testing.T) {
	f := newCLIFixture(t, false)
	out, err := runCLI(t, "--commit", f.path)
	require.NoError(t, err)
	assert.Contains(t, out, `"did": "`+repotesting.FixtureDID+`"`)
	assert.Contains(t, out, `"prev": null`)
}

func TestRunStore(t *testing.T) {
	f := newCLIFixture(t, false)
	dir := t.TempDir()
	_, err := runCLI(t, "--store", dir, f.path)
	require.NoError(t, err)

	store, err := blockstore.NewBadger(dir)
	require.NoError(t, err)
	defer store.Close()
	has, err := store.Has(context.Background(), f.repo.Commit)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestRunArgs(t *testing.T) {
	_, err := runCLI(t)
	assert.Error(t, err)
	_, err = runCLI(t, filepath.Join(t.TempDir(), "missing.car"))
	assert.Error(t, err)
}
