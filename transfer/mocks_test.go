package transfer

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/parley-chat/parley/wire"
)

// fakeStream is an in-memory Stream. Reads drain the preloaded input and
// then return readErr (io.EOF by default, modeling an abrupt close).
type fakeStream struct {
	in      bytes.Buffer
	out     bytes.Buffer
	readErr error
}

func (s *fakeStream) Read(p []byte) (int, error) {
	if s.in.Len() == 0 {
		if s.readErr != nil {
			return 0, s.readErr
		}
		return 0, io.EOF
	}
	return s.in.Read(p)
}

func (s *fakeStream) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

// feedFrames preloads encoded frames as the peer's side of the stream.
func feedFrames(t *testing.T, s *fakeStream, frames ...wire.StreamFrame) {
	t.Helper()
	for _, frame := range frames {
		encoded, err := wire.EncodeFrame(frame)
		require.NoError(t, err)
		s.in.Write(encoded)
	}
}

// sentFrames decodes everything the coordinator wrote back to the peer.
func sentFrames(t *testing.T, s *fakeStream) []wire.StreamFrame {
	t.Helper()
	codec := wire.NewFrameCodec()
	codec.Feed(s.out.Bytes())
	var frames []wire.StreamFrame
	for {
		frame, err := codec.DecodeNext()
		require.NoError(t, err)
		if frame == nil {
			return frames
		}
		frames = append(frames, *frame)
	}
}

// sentControls filters the coordinator's output down to control messages.
func sentControls(t *testing.T, s *fakeStream) []wire.ControlMessage {
	t.Helper()
	var msgs []wire.ControlMessage
	for _, frame := range sentFrames(t, s) {
		if frame.Type == wire.FrameControl {
			msgs = append(msgs, frame.Msg)
		}
	}
	return msgs
}

var testSecret = []byte("test-signing-secret")

// makeUploadToken issues a valid token for the given transfer parameters.
func makeUploadToken(t *testing.T, transferID, filename string, size uint64) string {
	t.Helper()
	now := time.Now()
	token, err := SignToken(testSecret, &Claims{
		UserID:     42,
		TransferID: transferID,
		ChannelID:  7,
		Filename:   filename,
		FileSize:   size,
		ExpiresAt:  now.Add(time.Hour).Unix(),
		IssuedAt:   now.Unix(),
	})
	require.NoError(t, err)
	return token
}

// chunked splits data into wire-sized Data frames followed by EndOfData.
func chunked(data []byte, chunkSize int) []wire.StreamFrame {
	var frames []wire.StreamFrame
	for len(data) > 0 {
		n := min(len(data), chunkSize)
		frames = append(frames, wire.DataFrame(data[:n]))
		data = data[n:]
	}
	return append(frames, wire.EndOfDataFrame())
}
