package node

import "errors"

// Peer/network errors per spec.md section 7's taxonomy. These are
// recovered by retry-with-bound; after exhausting retries the caller
// reports failure and continues.
var (
	ErrConnectionRefused  = errors.New("node: connection refused")
	ErrTimeout            = errors.New("node: request timed out")
	ErrChecksumMismatch   = errors.New("node: response checksum does not match payload")
	ErrAlreadyQueued      = errors.New("node: transaction already in mempool or orphan pool")
	ErrSelfPeer           = errors.New("node: refusing to dial a locally-owned endpoint")
	ErrUnknownMessageType = errors.New("node: unrecognized message type")
	ErrNotOrdinary        = errors.New("node: only ordinary transactions may enter the mempool")
	ErrNoConsensus        = errors.New("node: no peer statuses to gather consensus from")
)
