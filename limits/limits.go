// Package limits provides centralized size limits for the parley media
// transport protocol. This ensures consistent validation across the wire
// codecs and the file transfer coordinators.
package limits

import (
	"errors"
	"fmt"
)

const (
	// MaxControlMessage is the maximum serialized size of a control message
	// payload (256 KiB). A length prefix claiming more than this is a fatal
	// protocol error, never a request for more bytes.
	MaxControlMessage = 256 * 1024

	// MaxDataChunk is the maximum size of a single file data chunk on a
	// transfer stream (512 KiB).
	MaxDataChunk = 512 * 1024

	// MaxFileSize is the maximum declared file size accepted for a transfer
	// (1 GiB). Transfers declaring more are rejected before any data is read.
	MaxFileSize = 1024 * 1024 * 1024

	// DefaultChunkSize is the chunk size the server confirms in
	// FileTransferAccept (256 KiB). It bounds per-frame memory on both sides.
	DefaultChunkSize = 256 * 1024

	// ProgressAckInterval is how many newly received bytes accumulate before
	// the upload coordinator pushes a FileTransferProgress ack (~1 MiB).
	ProgressAckInterval = 1024 * 1024

	// LengthPrefixSize is the size of the big-endian length prefix that
	// precedes every control message payload.
	LengthPrefixSize = 4
)

var (
	// ErrMessageTooLarge indicates a control message exceeds MaxControlMessage.
	ErrMessageTooLarge = errors.New("control message too large")

	// ErrChunkTooLarge indicates a data chunk exceeds MaxDataChunk.
	ErrChunkTooLarge = errors.New("data chunk too large")

	// ErrFileTooLarge indicates a declared file size exceeds MaxFileSize.
	ErrFileTooLarge = errors.New("file too large")
)

// ValidateControlSize validates a serialized control message size against
// MaxControlMessage. Returns an error with context including the actual and
// maximum sizes.
func ValidateControlSize(size int) error {
	if size > MaxControlMessage {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrMessageTooLarge, size, MaxControlMessage)
	}
	return nil
}

// ValidateChunkSize validates a data chunk size against MaxDataChunk.
// Empty chunks are legal; only the upper bound is enforced.
func ValidateChunkSize(size int) error {
	if size > MaxDataChunk {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrChunkTooLarge, size, MaxDataChunk)
	}
	return nil
}

// ValidateFileSize validates a declared file size against MaxFileSize.
func ValidateFileSize(size uint64) error {
	if size > MaxFileSize {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, size, MaxFileSize)
	}
	return nil
}
