package transfer

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/parley-chat/parley/limits"
	"github.com/parley-chat/parley/wire"
)

// Stream is one reliable, ordered, bidirectional byte stream, typically a
// QUIC bidirectional stream.
type Stream interface {
	io.Reader
	io.Writer
}

// UploadResult carries the completed upload back to the caller, which
// persists the bytes and notifies the peer with FileTransferDone.
type UploadResult struct {
	TransferID string
	UserID     int64
	ChannelID  int64
	Filename   string
	Data       []byte
}

const readBufferSize = 32 * 1024

// HandleUpload drives one upload stream from init to a terminal state and
// returns the assembled file on success. Every failure wraps one of the
// package sentinels; the staging file survives only ErrTransientIO.
func HandleUpload(ctx context.Context, stream Stream, validator TokenValidator, tracker *Tracker, partials *PartialManager) (*UploadResult, error) {
	codec := wire.NewFrameCodec()
	buf := make([]byte, readBufferSize)

	init, err := awaitInit(stream, codec, buf)
	if err != nil {
		sendError(stream, "", ErrorCodeProtocol, "expected file_transfer_init")
		return nil, err
	}
	log := logrus.WithFields(logrus.Fields{
		"function":    "HandleUpload",
		"transfer_id": init.TransferID,
	})

	if !ValidTransferID(init.TransferID) {
		sendError(stream, init.TransferID, ErrorCodeProtocol, "invalid transfer id")
		return nil, fmt.Errorf("%w: invalid transfer id", ErrProtocolViolation)
	}

	claims, err := validator.Validate(init.UploadToken)
	if err != nil {
		sendControl(stream, wire.FileTransferReject{
			TransferID: init.TransferID,
			Reason:     "authentication failed",
		})
		return nil, err
	}
	if claims.TransferID != init.TransferID {
		sendError(stream, init.TransferID, ErrorCodeProtocol, "transfer id mismatch")
		return nil, fmt.Errorf("%w: token transfer id %s does not match init %s",
			ErrProtocolViolation, claims.TransferID, init.TransferID)
	}
	if err := limits.ValidateFileSize(claims.FileSize); err != nil {
		sendControl(stream, wire.FileTransferReject{
			TransferID: init.TransferID,
			Reason:     "file too large",
		})
		return nil, fmt.Errorf("%w: %v", ErrResourceLimit, err)
	}

	// Register before touching the staging file: a duplicate init for an
	// active transfer must be rejected without disturbing that transfer's
	// partial.
	state := &State{
		TransferID: init.TransferID,
		UserID:     claims.UserID,
		ChannelID:  claims.ChannelID,
		Filename:   claims.Filename,
		TotalSize:  claims.FileSize,
		TempPath:   partials.TempPath(init.TransferID),
	}
	if err := tracker.Insert(state); err != nil {
		sendError(stream, init.TransferID, ErrorCodeProtocol, "transfer already active")
		return nil, err
	}
	defer tracker.Remove(init.TransferID)

	if err := partials.EnsureDir(); err != nil {
		sendError(stream, init.TransferID, ErrorCodeProtocol, "storage unavailable")
		return nil, fmt.Errorf("%w: %v", ErrTransientIO, err)
	}

	// The client's claimed offset is never trusted beyond what is staged
	// on disk. No requested resume discards any stale partial.
	staged := partials.PartialSize(init.TransferID)
	var offset uint64
	if init.ResumeOffset != nil {
		offset = min(*init.ResumeOffset, staged)
		if offset < staged {
			if err := partials.TruncateTo(init.TransferID, offset); err != nil {
				sendError(stream, init.TransferID, ErrorCodeProtocol, "storage unavailable")
				return nil, fmt.Errorf("%w: %v", ErrTransientIO, err)
			}
		}
	} else if staged > 0 {
		partials.Remove(init.TransferID)
	}
	state.bytesReceived.Store(offset)

	file, err := partials.OpenAppend(init.TransferID)
	if err != nil {
		sendError(stream, init.TransferID, ErrorCodeProtocol, "storage unavailable")
		return nil, fmt.Errorf("%w: %v", ErrTransientIO, err)
	}
	defer file.Close()

	if err := sendControl(stream, wire.FileTransferAccept{
		TransferID: init.TransferID,
		ChunkSize:  limits.DefaultChunkSize,
		Offset:     offset,
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransientIO, err)
	}
	log.WithFields(logrus.Fields{
		"filename": claims.Filename,
		"size":     claims.FileSize,
		"offset":   offset,
	}).Info("Upload accepted")

	received := offset
	lastAck := offset
	for {
		if err := checkCancelled(ctx, stream, tracker, partials, init.TransferID); err != nil {
			return nil, err
		}

		frame, err := codec.DecodeNext()
		if err != nil {
			partials.Remove(init.TransferID)
			sendError(stream, init.TransferID, ErrorCodeProtocol, "malformed frame")
			return nil, fmt.Errorf("%w: %v", ErrProtocolViolation, err)
		}
		if frame == nil {
			n, err := stream.Read(buf)
			if n > 0 {
				codec.Feed(buf[:n])
			}
			if err != nil {
				// Closure without EndOfData never completes a transfer.
				// The partial stays on disk for a later resume.
				return nil, fmt.Errorf("%w: stream closed before end of data: %v", ErrTransientIO, err)
			}
			continue
		}

		switch frame.Type {
		case wire.FrameData:
			if received+uint64(len(frame.Data)) > claims.FileSize {
				partials.Remove(init.TransferID)
				sendError(stream, init.TransferID, ErrorCodeSizeExceeded, "received more data than declared size")
				return nil, fmt.Errorf("%w: received bytes exceed declared size %d",
					ErrResourceLimit, claims.FileSize)
			}
			if _, err := file.Write(frame.Data); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrTransientIO, err)
			}
			received += uint64(len(frame.Data))
			tracker.SetBytesReceived(init.TransferID, received)

			if received-lastAck >= limits.ProgressAckInterval {
				lastAck = received
				if err := sendControl(stream, wire.FileTransferProgress{
					TransferID:    init.TransferID,
					BytesReceived: received,
				}); err != nil {
					return nil, fmt.Errorf("%w: %v", ErrTransientIO, err)
				}
			}

		case wire.FrameEndOfData:
			// The declared size is an upper bound only; EndOfData below
			// it completes the transfer short.
			if err := file.Sync(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrTransientIO, err)
			}
			data, err := partials.ReadComplete(init.TransferID)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrTransientIO, err)
			}
			partials.Remove(init.TransferID)
			log.WithField("bytes", len(data)).Info("Upload complete")
			return &UploadResult{
				TransferID: init.TransferID,
				UserID:     claims.UserID,
				ChannelID:  claims.ChannelID,
				Filename:   claims.Filename,
				Data:       data,
			}, nil

		case wire.FrameControl:
			if cancel, ok := frame.Msg.(wire.FileTransferCancel); ok && cancel.TransferID == init.TransferID {
				partials.Remove(init.TransferID)
				log.Info("Upload cancelled by peer")
				return nil, fmt.Errorf("%w: cancelled by peer", ErrCancelled)
			}
			log.WithField("message", fmt.Sprintf("%T", frame.Msg)).Debug("Ignoring control message mid-upload")
		}
	}
}

// awaitInit reads frames until the opening FileTransferInit arrives.
// Any other control message first is a protocol violation.
func awaitInit(stream Stream, codec *wire.FrameCodec, buf []byte) (wire.FileTransferInit, error) {
	for {
		frame, err := codec.DecodeNext()
		if err != nil {
			return wire.FileTransferInit{}, fmt.Errorf("%w: %v", ErrProtocolViolation, err)
		}
		if frame == nil {
			n, err := stream.Read(buf)
			if n > 0 {
				codec.Feed(buf[:n])
			}
			if err != nil {
				return wire.FileTransferInit{}, fmt.Errorf("%w: stream closed before init: %v", ErrTransientIO, err)
			}
			continue
		}
		if frame.Type != wire.FrameControl {
			return wire.FileTransferInit{}, fmt.Errorf("%w: expected control frame, got type %d",
				ErrProtocolViolation, frame.Type)
		}
		init, ok := frame.Msg.(wire.FileTransferInit)
		if !ok {
			return wire.FileTransferInit{}, fmt.Errorf("%w: expected file_transfer_init, got %T",
				ErrProtocolViolation, frame.Msg)
		}
		return init, nil
	}
}

// checkCancelled polls both the context and the tracker flag, unwinding
// with a terminal Cancel message if either tripped.
func checkCancelled(ctx context.Context, stream Stream, tracker *Tracker, partials *PartialManager, transferID string) error {
	if ctx.Err() == nil && !tracker.IsCancelled(transferID) {
		return nil
	}
	sendControl(stream, wire.FileTransferCancel{TransferID: transferID})
	partials.Remove(transferID)
	return fmt.Errorf("%w: transfer %s", ErrCancelled, transferID)
}

func sendControl(stream Stream, msg wire.ControlMessage) error {
	encoded, err := wire.EncodeFrame(wire.ControlFrame(msg))
	if err != nil {
		return err
	}
	_, err = stream.Write(encoded)
	return err
}

// sendError delivers a terminal error frame on a best-effort basis. The
// stream may already be unusable, so the write error is only logged.
func sendError(stream Stream, transferID string, code uint32, message string) {
	if err := sendControl(stream, wire.FileTransferError{
		TransferID: transferID,
		Code:       code,
		Message:    message,
	}); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "sendError",
			"transfer_id": transferID,
			"error":       err,
		}).Debug("Failed to deliver terminal error frame")
	}
}
