package codec

import "errors"

var (
	ErrCodecMismatch = errors.New("codec: decoded object does not re-serialize to the consumed slice")
	ErrUnknownType   = errors.New("codec: unknown type tag")
	ErrTruncatedVLI  = errors.New("codec: truncated variable-length integer")
)
