package repotesting

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/require"

	"github.com/forestrie/go-repocar/commit"
)

func GenerateP256Key(t *testing.T) *ecdsa.PrivateKey {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return key
}

func GenerateSecp256k1Key(t *testing.T) *secp256k1.PrivateKey {
	key, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	return key
}

func NewP256Signer(t *testing.T) *commit.P256Signer {
	s, err := commit.NewP256Signer(GenerateP256Key(t))
	require.NoError(t, err)
	return s
}

func NewSecp256k1Signer(t *testing.T) *commit.Secp256k1Signer {
	return commit.NewSecp256k1Signer(GenerateSecp256k1Key(t))
}
