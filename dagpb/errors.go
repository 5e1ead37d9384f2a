package dagpb

import "errors"

var ErrInvalidNode = errors.New("invalid dag-pb node")
