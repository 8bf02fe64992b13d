package transfer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-chat/parley/limits"
	"github.com/parley-chat/parley/wire"
)

func testAttachment(size int) Attachment {
	return Attachment{
		AttachmentID: "att-1",
		Filename:     "clip.webm",
		ContentType:  "video/webm",
		Data:         patternBytes(size),
	}
}

// reassemble walks the coordinator's output and collects the Data payload
// between Accept and EndOfData, checking the terminal Done.
func reassemble(t *testing.T, stream *fakeStream) (wire.FileDownloadAccept, []byte) {
	t.Helper()
	frames := sentFrames(t, stream)
	require.NotEmpty(t, frames)

	accept, ok := frames[0].Msg.(wire.FileDownloadAccept)
	require.True(t, ok)

	var data []byte
	sawEnd := false
	for _, frame := range frames[1:] {
		switch frame.Type {
		case wire.FrameData:
			require.False(t, sawEnd)
			require.LessOrEqual(t, len(frame.Data), limits.DefaultChunkSize)
			data = append(data, frame.Data...)
		case wire.FrameEndOfData:
			sawEnd = true
		case wire.FrameControl:
			require.True(t, sawEnd)
			done, ok := frame.Msg.(wire.FileTransferDone)
			require.True(t, ok)
			assert.Equal(t, "att-1", done.AttachmentID)
		}
	}
	require.True(t, sawEnd)
	return accept, data
}

func TestDownloadComplete(t *testing.T) {
	att := testAttachment(600_000) // forces several chunks
	stream := &fakeStream{}
	feedFrames(t, stream, wire.ControlFrame(wire.FileDownloadRequest{
		AttachmentID: "att-1",
		AuthToken:    "session",
	}))

	require.NoError(t, HandleDownload(context.Background(), stream, att))

	accept, data := reassemble(t, stream)
	assert.Equal(t, uint64(0), accept.Offset)
	assert.Equal(t, uint64(len(att.Data)), accept.Size)
	assert.Equal(t, "clip.webm", accept.Filename)
	assert.Equal(t, "video/webm", accept.ContentType)
	assert.Equal(t, att.Data, data)
}

func TestDownloadRangeResume(t *testing.T) {
	att := testAttachment(300_000)
	start := uint64(100_000)
	stream := &fakeStream{}
	feedFrames(t, stream, wire.ControlFrame(wire.FileDownloadRequest{
		AttachmentID: "att-1",
		AuthToken:    "session",
		RangeStart:   &start,
	}))

	require.NoError(t, HandleDownload(context.Background(), stream, att))

	accept, data := reassemble(t, stream)
	assert.Equal(t, start, accept.Offset)
	assert.Equal(t, uint64(200_000), accept.Size)
	assert.Equal(t, att.Data[start:], data)
}

func TestDownloadRangeClampedToLength(t *testing.T) {
	att := testAttachment(1000)
	start := uint64(50_000)
	stream := &fakeStream{}
	feedFrames(t, stream, wire.ControlFrame(wire.FileDownloadRequest{
		AttachmentID: "att-1",
		AuthToken:    "session",
		RangeStart:   &start,
	}))

	require.NoError(t, HandleDownload(context.Background(), stream, att))

	accept, data := reassemble(t, stream)
	assert.Equal(t, uint64(1000), accept.Offset)
	assert.Equal(t, uint64(0), accept.Size)
	assert.Empty(t, data)
}

func TestDownloadEmptyAttachment(t *testing.T) {
	att := testAttachment(0)
	stream := &fakeStream{}
	feedFrames(t, stream, wire.ControlFrame(wire.FileDownloadRequest{
		AttachmentID: "att-1",
		AuthToken:    "session",
	}))

	require.NoError(t, HandleDownload(context.Background(), stream, att))

	accept, data := reassemble(t, stream)
	assert.Equal(t, uint64(0), accept.Size)
	assert.Empty(t, data)
}

func TestDownloadWrongFirstMessage(t *testing.T) {
	stream := &fakeStream{}
	feedFrames(t, stream, wire.ControlFrame(wire.Ping{}))

	err := HandleDownload(context.Background(), stream, testAttachment(100))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProtocolViolation))
}

func TestDownloadContextCancel(t *testing.T) {
	att := testAttachment(600_000)
	stream := &fakeStream{}
	feedFrames(t, stream, wire.ControlFrame(wire.FileDownloadRequest{
		AttachmentID: "att-1",
		AuthToken:    "session",
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := HandleDownload(ctx, stream, att)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCancelled))
}
