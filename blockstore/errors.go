package blockstore

import "errors"

var (
	ErrBlockNotFound     = errors.New("block not found")
	ErrBlockHashMismatch = errors.New("block bytes do not match their content identifier")
)
