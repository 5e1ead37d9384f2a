package commit_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"strings"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forestrie/go-repocar/commit"
	"github.com/forestrie/go-repocar/contentid"
	"github.com/forestrie/go-repocar/dagcbor"
	"github.com/forestrie/go-repocar/repotesting"
)

func unsignedCommit(t *testing.T) dagcbor.Map {
	t.Helper()
	return dagcbor.Map{
		"did":     dagcbor.String(repotesting.FixtureDID),
		"version": dagcbor.Int(3),
		"data":    dagcbor.NewLink(mustCID(t, "tree root")),
		"rev":     dagcbor.String(repotesting.FixtureRev),
		"prev":    dagcbor.Null{},
	}
}

func mustCID(t *testing.T, s string) cid.Cid {
	t.Helper()
	c, err := contentid.Sum([]byte(s), 1, contentid.Raw)
	require.NoError(t, err)
	return c
}

func TestVerify(t *testing.T) {
	signers := map[string]commit.Signer{
		"p256":      repotesting.NewP256Signer(t),
		"secp256k1": repotesting.NewSecp256k1Signer(t),
	}
	for name, signer := range signers {
		t.Run(name, func(t *testing.T) {
			signed, err := commit.Sign(unsignedCommit(t), signer)
			require.NoError(t, err)
			sig, ok := signed.Bytes("sig")
			require.True(t, ok)
			assert.Len(t, sig, 64)

			assert.True(t, commit.Verify(signed, signer.Public()))

			// a different key
			var other commit.Signer = repotesting.NewP256Signer(t)
			if name == "secp256k1" {
				other = repotesting.NewSecp256k1Signer(t)
			}
			assert.False(t, commit.Verify(signed, other.Public()))

			// no signature
			assert.False(t, commit.Verify(signed.Without("sig"), signer.Public()))
			assert.ErrorIs(t, commit.VerifyErr(signed.Without("sig"), signer.Public()), commit.ErrSignatureMissing)

			// a changed field
			tampered := signed.Without("")
			tampered["rev"] = dagcbor.String("other")
			assert.ErrorIs(t, commit.VerifyErr(tampered, signer.Public()), commit.ErrSignatureInvalid)
		})
	}
}

// The signature covers "prev": null. Dropping it, as happens to every other
// null valued key, must invalidate the signature.
func TestVerifyCoversPrevNull(t *testing.T) {
	signer := repotesting.NewP256Signer(t)
	signed, err := commit.Sign(unsignedCommit(t), signer)
	require.NoError(t, err)

	unsigned, err := commit.UnsignedBytes(signed)
	require.NoError(t, err)
	assert.Contains(t, string(unsigned), "prev")

	signed["extra"] = dagcbor.Null{}
	assert.True(t, commit.Verify(signed, signer.Public()))

	assert.False(t, commit.Verify(signed.Without("prev"), signer.Public()))
}

func TestVerifyDER(t *testing.T) {
	key := repotesting.GenerateP256Key(t)
	m := unsignedCommit(t)
	unsigned, err := commit.UnsignedBytes(m)
	require.NoError(t, err)

	digest := sha256.Sum256(unsigned)
	der, err := ecdsa.SignASN1(rand.Reader, key, digest[:])
	require.NoError(t, err)
	m["sig"] = dagcbor.Bytes(der)
	assert.True(t, commit.Verify(m, &key.PublicKey))
}

func TestVerifyOtherCurve(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)
	m := unsignedCommit(t)
	unsigned, err := commit.UnsignedBytes(m)
	require.NoError(t, err)

	digest := sha256.Sum256(unsigned)
	r, s, err := ecdsa.Sign(rand.Reader, key, digest[:])
	require.NoError(t, err)
	sig := make([]byte, 96)
	r.FillBytes(sig[:48])
	s.FillBytes(sig[48:])
	m["sig"] = dagcbor.Bytes(sig)
	assert.True(t, commit.Verify(m, &key.PublicKey))
}

func TestVerifyUnsupportedKey(t *testing.T) {
	signed, err := commit.Sign(unsignedCommit(t), repotesting.NewP256Signer(t))
	require.NoError(t, err)
	assert.ErrorIs(t, commit.VerifyErr(signed, "not a key"), commit.ErrUnsupportedKey)
	assert.False(t, commit.Verify(signed, nil))
}

func TestVerifyFixture(t *testing.T) {
	signer := repotesting.NewSecp256k1Signer(t)
	f := repotesting.NewRepoFixture(t, signer)

	did, err := commit.FormatDIDKey(signer.Public())
	require.NoError(t, err)
	assert.NoError(t, commit.VerifyWithProvider(f.CommitMap, commit.DIDKey(did)))
}

func TestDIDKey(t *testing.T) {
	p256 := repotesting.GenerateP256Key(t)
	k256 := repotesting.GenerateSecp256k1Key(t)

	tests := []struct {
		name   string
		pub    any
		prefix string
	}{
		{"p256", &p256.PublicKey, "did:key:zDn"},
		{"secp256k1", k256.PubKey(), "did:key:zQ3s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			did, err := commit.FormatDIDKey(tt.pub)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(did, tt.prefix), did)

			pub, err := commit.ParseDIDKey(did)
			require.NoError(t, err)
			again, err := commit.FormatDIDKey(pub)
			require.NoError(t, err)
			assert.Equal(t, did, again)
		})
	}
}

func TestParseDIDKeyRejects(t *testing.T) {
	for _, did := range []string{
		"",
		"did:plc:abc",
		"did:key:",
		"did:key:bafkreie7q3iidccmpvszul7kudcvvuavuo7u6gzlbobczuk5nqk3b4akba",
		"did:key:z6MkhaXgBZDvotDkL5257faiztiGiC2QtKLGpbnnEGta2doK",
	} {
		_, err := commit.ParseDIDKey(did)
		assert.Error(t, err, did)
	}
}

func TestCompactToASN1(t *testing.T) {
	der, err := commit.CompactToASN1(append(make([]byte, 31), 1, 0x80))
	require.Error(t, err)
	assert.Nil(t, der)

	sig := make([]byte, 64)
	sig[31], sig[63] = 1, 0x80
	der, err = commit.CompactToASN1(sig)
	require.NoError(t, err)
	// SEQUENCE { INTEGER 1, INTEGER 0x0080 }
	assert.Equal(t, []byte{0x30, 0x07, 0x02, 0x01, 0x01, 0x02, 0x02, 0x00, 0x80}, der)
}
