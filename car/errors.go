package car

import "errors"

var (
	ErrInvalidHeader        = errors.New("invalid archive header")
	ErrUnsupportedVersion   = errors.New("unsupported archive version")
	ErrBlockTooLarge        = errors.New("archive frame exceeds the maximum block size")
	ErrBlockHashMismatch    = errors.New("block bytes do not match their content identifier")
	ErrUnsupportedCodec     = errors.New("unsupported block codec")
	ErrTruncatedFrame       = errors.New("archive frame is truncated")
	ErrSignedCommitNotFound = errors.New("signed commit not found")
	ErrArchiveTooLarge      = errors.New("decompressed archive exceeds the maximum size")
)
