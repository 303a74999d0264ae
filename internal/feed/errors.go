package feed

import "errors"

// Sentinel errors for the taxonomy of protocol-integrity failures a feed
// session can hit. All of them are fatal to the current session and are
// expected to propagate up to the reconnect supervisor.
var (
	ErrSequenceGap   = errors.New("sequence gap")
	ErrSeamMismatch  = errors.New("snapshot/stream seam mismatch")
	ErrUnknownEvent  = errors.New("unknown message type/side combination")
	ErrDecodeFailure = errors.New("message decode failure")
)
