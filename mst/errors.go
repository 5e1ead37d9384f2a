package mst

import "errors"

var (
	ErrInvalidCommit = errors.New("invalid commit")
	ErrInvalidNode   = errors.New("invalid tree node")
	ErrKeyNotFound   = errors.New("key not found")
	ErrNoRoot        = errors.New("archive has no root")
)
