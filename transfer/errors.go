package transfer

import "errors"

// Error taxonomy for transfer tasks. Every terminal failure returned by the
// coordinators wraps exactly one of these sentinels so callers can classify
// the outcome with errors.Is.
var (
	// ErrProtocolViolation indicates a malformed or out-of-order frame, a
	// token/message transfer id mismatch, or a duplicate init for an
	// already-active transfer. The staging file is removed.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrAuthFailed indicates an invalid, expired, or mismatched upload
	// token. The transfer is rejected before any data is accepted.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrResourceLimit indicates the declared or received size exceeded a
	// hard cap. The staging file is removed.
	ErrResourceLimit = errors.New("resource limit exceeded")

	// ErrCancelled indicates the transfer ended by explicit request, either
	// a cancel frame from the peer or an out-of-band cancellation. The
	// staging file is removed.
	ErrCancelled = errors.New("transfer cancelled")

	// ErrTransientIO indicates a stream or disk failure mid-transfer. The
	// staging file is preserved so a later attempt can resume.
	ErrTransientIO = errors.New("transient i/o failure")
)

// Wire error codes carried in FileTransferError frames.
const (
	ErrorCodeSizeExceeded uint32 = 1
	ErrorCodeProtocol     uint32 = 2
)
