package transfer

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/parley-chat/parley/limits"
	"github.com/parley-chat/parley/wire"
)

// Attachment is resolved content handed to the download coordinator by a
// caller that has already authorized the request and loaded the bytes.
type Attachment struct {
	AttachmentID string
	Filename     string
	ContentType  string
	Data         []byte
}

// HandleDownload serves one attachment over the stream. The peer opens
// with FileDownloadRequest; the response is FileDownloadAccept, the
// requested bytes as Data frames, EndOfData, then FileTransferDone.
//
// range_start is honored after clamping to the file's length. range_end is
// accepted on the wire but the full remainder is always sent.
func HandleDownload(ctx context.Context, stream Stream, att Attachment) error {
	codec := wire.NewFrameCodec()
	buf := make([]byte, readBufferSize)

	req, err := awaitDownloadRequest(stream, codec, buf)
	if err != nil {
		sendError(stream, att.AttachmentID, ErrorCodeProtocol, "expected file_download_request")
		return err
	}
	log := logrus.WithFields(logrus.Fields{
		"function":      "HandleDownload",
		"attachment_id": att.AttachmentID,
	})

	var offset uint64
	if req.RangeStart != nil {
		offset = min(*req.RangeStart, uint64(len(att.Data)))
	}
	remainder := att.Data[offset:]

	if err := sendControl(stream, wire.FileDownloadAccept{
		AttachmentID: att.AttachmentID,
		Filename:     att.Filename,
		Size:         uint64(len(remainder)),
		ContentType:  att.ContentType,
		Offset:       offset,
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrTransientIO, err)
	}
	log.WithFields(logrus.Fields{
		"filename": att.Filename,
		"size":     len(remainder),
		"offset":   offset,
	}).Info("Download accepted")

	for len(remainder) > 0 {
		if ctx.Err() != nil {
			sendControl(stream, wire.FileTransferCancel{TransferID: att.AttachmentID})
			return fmt.Errorf("%w: download %s", ErrCancelled, att.AttachmentID)
		}
		chunk := remainder
		if len(chunk) > limits.DefaultChunkSize {
			chunk = chunk[:limits.DefaultChunkSize]
		}
		encoded, err := wire.EncodeFrame(wire.DataFrame(chunk))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrProtocolViolation, err)
		}
		if _, err := stream.Write(encoded); err != nil {
			return fmt.Errorf("%w: %v", ErrTransientIO, err)
		}
		remainder = remainder[len(chunk):]
	}

	eod, err := wire.EncodeFrame(wire.EndOfDataFrame())
	if err != nil {
		return err
	}
	if _, err := stream.Write(eod); err != nil {
		return fmt.Errorf("%w: %v", ErrTransientIO, err)
	}
	if err := sendControl(stream, wire.FileTransferDone{
		TransferID:   req.AttachmentID,
		AttachmentID: att.AttachmentID,
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrTransientIO, err)
	}
	log.Info("Download complete")
	return nil
}

func awaitDownloadRequest(stream Stream, codec *wire.FrameCodec, buf []byte) (wire.FileDownloadRequest, error) {
	for {
		frame, err := codec.DecodeNext()
		if err != nil {
			return wire.FileDownloadRequest{}, fmt.Errorf("%w: %v", ErrProtocolViolation, err)
		}
		if frame == nil {
			n, err := stream.Read(buf)
			if n > 0 {
				codec.Feed(buf[:n])
			}
			if err != nil {
				return wire.FileDownloadRequest{}, fmt.Errorf("%w: stream closed before request: %v", ErrTransientIO, err)
			}
			continue
		}
		if frame.Type != wire.FrameControl {
			return wire.FileDownloadRequest{}, fmt.Errorf("%w: expected control frame, got type %d",
				ErrProtocolViolation, frame.Type)
		}
		req, ok := frame.Msg.(wire.FileDownloadRequest)
		if !ok {
			return wire.FileDownloadRequest{}, fmt.Errorf("%w: expected file_download_request, got %T",
				ErrProtocolViolation, frame.Msg)
		}
		return req, nil
	}
}
