package commit

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/multiformats/go-multibase"

	"github.com/forestrie/go-repocar/varint"
)

const didKeyPrefix = "did:key:"

// Multicodec tags for compressed public keys.
const (
	CodecSecp256k1Pub = 0xe7
	CodecP256Pub      = 0x1200
)

// DIDKey is a did:key string naming a public key.
type DIDKey string

func (k DIDKey) PublicKey() (crypto.PublicKey, error) {
	return ParseDIDKey(string(k))
}

// ParseDIDKey decodes a did:key holding a compressed P-256 or secp256k1
// key. The key material is base58btc multibase over a multicodec varint
// followed by the 33 byte compressed point.
func ParseDIDKey(did string) (crypto.PublicKey, error) {
	rest, ok := strings.CutPrefix(did, didKeyPrefix)
	if !ok {
		return nil, fmt.Errorf("%w: missing %q prefix", ErrInvalidDIDKey, didKeyPrefix)
	}
	enc, data, err := multibase.Decode(rest)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDIDKey, err)
	}
	if enc != multibase.Base58BTC {
		return nil, fmt.Errorf("%w: multibase %c, want base58btc", ErrInvalidDIDKey, rune(enc))
	}
	codec, n, err := varint.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDIDKey, err)
	}
	point := data[n:]

	switch codec {
	case CodecSecp256k1Pub:
		pub, err := secp256k1.ParsePubKey(point)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDIDKey, err)
		}
		return pub, nil
	case CodecP256Pub:
		x, y := elliptic.UnmarshalCompressed(elliptic.P256(), point)
		if x == nil {
			return nil, fmt.Errorf("%w: bad P-256 point", ErrInvalidDIDKey)
		}
		return &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}, nil
	default:
		return nil, fmt.Errorf("%w: key codec %#x", ErrUnsupportedKey, codec)
	}
}

// FormatDIDKey is the inverse of ParseDIDKey.
func FormatDIDKey(pub crypto.PublicKey) (string, error) {
	var codec uint64
	var point []byte
	switch key := pub.(type) {
	case *secp256k1.PublicKey:
		codec, point = CodecSecp256k1Pub, key.SerializeCompressed()
	case *ecdsa.PublicKey:
		if key.Curve != elliptic.P256() {
			return "", fmt.Errorf("%w: curve %s", ErrUnsupportedKey, key.Curve.Params().Name)
		}
		codec, point = CodecP256Pub, elliptic.MarshalCompressed(key.Curve, key.X, key.Y)
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedKey, pub)
	}
	data, err := varint.Append(nil, codec)
	if err != nil {
		return "", err
	}
	s, err := multibase.Encode(multibase.Base58BTC, append(data, point...))
	if err != nil {
		return "", err
	}
	return didKeyPrefix + s, nil
}
