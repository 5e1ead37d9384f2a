package commit

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/veraison/go-cose"

	"github.com/forestrie/go-repocar/dagcbor"
)

// Signer produces r ‖ s signatures over sha2-256 of its input.
type Signer interface {
	Sign(unsigned []byte) ([]byte, error)
	Public() crypto.PublicKey
}

// P256Signer signs with a NIST P-256 key through go-cose ES256.
type P256Signer struct {
	key    *ecdsa.PrivateKey
	signer cose.Signer
}

func NewP256Signer(key *ecdsa.PrivateKey) (*P256Signer, error) {
	if key.Curve != elliptic.P256() {
		return nil, fmt.Errorf("%w: curve %s", ErrUnsupportedKey, key.Curve.Params().Name)
	}
	signer, err := cose.NewSigner(cose.AlgorithmES256, key)
	if err != nil {
		return nil, err
	}
	return &P256Signer{key: key, signer: signer}, nil
}

func (s *P256Signer) Sign(unsigned []byte) ([]byte, error) {
	return s.signer.Sign(rand.Reader, unsigned)
}

func (s *P256Signer) Public() crypto.PublicKey { return &s.key.PublicKey }

// Secp256k1Signer produces deterministic low S signatures.
type Secp256k1Signer struct {
	key *secp256k1.PrivateKey
}

func NewSecp256k1Signer(key *secp256k1.PrivateKey) *Secp256k1Signer {
	return &Secp256k1Signer{key: key}
}

func (s *Secp256k1Signer) Sign(unsigned []byte) ([]byte, error) {
	digest := sha256.Sum256(unsigned)
	sig := secpecdsa.Sign(s.key, digest[:])
	r, ss := sig.R(), sig.S()
	rb, sb := r.Bytes(), ss.Bytes()
	out := make([]byte, 0, 64)
	out = append(out, rb[:]...)
	return append(out, sb[:]...), nil
}

func (s *Secp256k1Signer) Public() crypto.PublicKey { return s.key.PubKey() }

// Sign returns a copy of commit carrying a signature by signer. Any
// existing signature is replaced.
func Sign(commit dagcbor.Map, signer Signer) (dagcbor.Map, error) {
	unsigned, err := UnsignedBytes(commit)
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(unsigned)
	if err != nil {
		return nil, err
	}
	signed := commit.Without(sigKey)
	signed[sigKey] = dagcbor.Bytes(sig)
	return signed, nil
}
