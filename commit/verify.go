// Package commit verifies and produces the signature on a repository
// commit.
//
// The signature covers the canonical dag-cbor encoding of the commit map
// with its "sig" entry removed. Signatures are ECDSA over sha2-256 in the
// 64 byte r ‖ s form; DER encoded signatures are accepted when verifying.
package commit

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/veraison/go-cose"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"

	"github.com/forestrie/go-repocar/dagcbor"
)

const sigKey = "sig"

// PublicKeyProvider supplies the key a commit should verify against.
type PublicKeyProvider interface {
	PublicKey() (crypto.PublicKey, error)
}

// UnsignedBytes returns the bytes the signature covers.
func UnsignedBytes(commit dagcbor.Map) ([]byte, error) {
	return dagcbor.Encode(commit.Without(sigKey))
}

// Verify reports whether commit carries a valid signature by pub. Every
// failure, including a missing signature, is reported as false.
func Verify(commit dagcbor.Map, pub crypto.PublicKey) bool {
	return VerifyErr(commit, pub) == nil
}

// VerifyWithProvider is Verify with the key taken from provider.
func VerifyWithProvider(commit dagcbor.Map, provider PublicKeyProvider) error {
	pub, err := provider.PublicKey()
	if err != nil {
		return err
	}
	return VerifyErr(commit, pub)
}

// VerifyErr is Verify reporting why verification failed.
func VerifyErr(commit dagcbor.Map, pub crypto.PublicKey) error {
	sig, ok := commit.Bytes(sigKey)
	if !ok || len(sig) == 0 {
		return ErrSignatureMissing
	}
	unsigned, err := UnsignedBytes(commit)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSignatureInvalid, err)
	}
	switch key := pub.(type) {
	case *ecdsa.PublicKey:
		return verifyECDSA(key, unsigned, sig)
	case *secp256k1.PublicKey:
		return verifySecp256k1(key, unsigned, sig)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedKey, pub)
	}
}

func verifyECDSA(pub *ecdsa.PublicKey, unsigned, sig []byte) error {
	size := (pub.Curve.Params().BitSize + 7) / 8
	if pub.Curve == elliptic.P256() && len(sig) == 2*size {
		verifier, err := cose.NewVerifier(cose.AlgorithmES256, pub)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSignatureInvalid, err)
		}
		if err := verifier.Verify(unsigned, sig); err != nil {
			return fmt.Errorf("%w: %w", ErrSignatureInvalid, err)
		}
		return nil
	}

	der := sig
	if len(sig) == 2*size {
		var err error
		if der, err = CompactToASN1(sig); err != nil {
			return fmt.Errorf("%w: %w", ErrSignatureInvalid, err)
		}
	}
	digest := sha256.Sum256(unsigned)
	if !ecdsa.VerifyASN1(pub, digest[:], der) {
		return ErrSignatureInvalid
	}
	return nil
}

func verifySecp256k1(pub *secp256k1.PublicKey, unsigned, sig []byte) error {
	digest := sha256.Sum256(unsigned)

	var parsed *secpecdsa.Signature
	if len(sig) == 64 {
		var r, s secp256k1.ModNScalar
		if r.SetByteSlice(sig[:32]) || s.SetByteSlice(sig[32:]) {
			return fmt.Errorf("%w: scalar overflows the group order", ErrSignatureInvalid)
		}
		parsed = secpecdsa.NewSignature(&r, &s)
	} else {
		var err error
		if parsed, err = secpecdsa.ParseDERSignature(sig); err != nil {
			return fmt.Errorf("%w: %w", ErrSignatureInvalid, err)
		}
	}
	if !parsed.Verify(digest[:], pub) {
		return ErrSignatureInvalid
	}
	return nil
}

// CompactToASN1 converts a fixed width r ‖ s signature to ASN.1 DER.
func CompactToASN1(sig []byte) ([]byte, error) {
	if len(sig) == 0 || len(sig)%2 != 0 {
		return nil, fmt.Errorf("%w: compact signature length %d", ErrSignatureInvalid, len(sig))
	}
	half := len(sig) / 2
	r := new(big.Int).SetBytes(sig[:half])
	s := new(big.Int).SetBytes(sig[half:])

	var b cryptobyte.Builder
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(r)
		b.AddASN1BigInt(s)
	})
	return b.Bytes()
}
