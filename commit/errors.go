package commit

import "errors"

var (
	ErrSignatureMissing = errors.New("commit has no signature")
	ErrSignatureInvalid = errors.New("commit signature verification failed")
	ErrUnsupportedKey   = errors.New("unsupported public key type")
	ErrInvalidDIDKey    = errors.New("invalid did:key")
)
