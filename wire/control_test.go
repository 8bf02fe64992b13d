package wire

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-chat/parley/limits"
)

func uint64Ptr(v uint64) *uint64 { return &v }

// allMessageVariants covers every constructor of the ControlMessage union.
func allMessageVariants() []ControlMessage {
	return []ControlMessage{
		Auth{Token: "eyJhbGciOiJIUzI1NiJ9.test.sig"},
		Subscribe{UserID: 123456789, Track: TrackAudio},
		Unsubscribe{UserID: 987654321, Track: TrackVideo},
		KeyAnnounce{
			Epoch: 5,
			EncryptedKeys: []RecipientKey{
				{UserID: 100, Ciphertext: []byte{0xDE, 0xAD}},
				{UserID: 200, Ciphertext: []byte{0xBE, 0xEF}},
			},
		},
		KeyDeliver{SenderUserID: 42, Epoch: 3, Ciphertext: []byte{1, 2, 3, 4, 5}},
		BandwidthFeedback{AvailableKbps: 2500},
		Ping{},
		Pong{},
		FileTransferInit{TransferID: "xfer-001", UploadToken: "tok.abc.def", ResumeOffset: uint64Ptr(4096)},
		FileTransferInit{TransferID: "xfer-002", UploadToken: "tok.xyz"},
		FileTransferAccept{TransferID: "xfer-001", ChunkSize: 262144, Offset: 4096},
		FileTransferReject{TransferID: "xfer-001", Reason: "file too large"},
		FileDownloadRequest{AttachmentID: "att-123", AuthToken: "bearer-tok", RangeStart: uint64Ptr(1024), RangeEnd: uint64Ptr(8192)},
		FileDownloadAccept{AttachmentID: "att-123", Filename: "photo.png", Size: 4096000, ContentType: "image/png", Offset: 0},
		FileTransferProgress{TransferID: "xfer-001", BytesReceived: 1048576},
		FileTransferDone{TransferID: "xfer-001", AttachmentID: "att-456", URL: "/files/att-456"},
		FileTransferDone{TransferID: "xfer-002"},
		FileTransferError{TransferID: "xfer-001", Code: 413, Message: "payload too large"},
		FileTransferCancel{TransferID: "xfer-001"},
	}
}

func TestMessageRoundTrip(t *testing.T) {
	for _, msg := range allMessageVariants() {
		encoded, err := EncodeMessage(msg)
		require.NoError(t, err, "encode %T", msg)

		decoded, consumed, err := DecodeMessage(encoded)
		require.NoError(t, err, "decode %T", msg)
		assert.Equal(t, len(encoded), consumed, "full frame should be consumed for %T", msg)
		assert.Equal(t, msg, decoded, "round trip mismatch for %T", msg)
	}
}

func TestMessageWireTag(t *testing.T) {
	encoded, err := EncodeMessage(Ping{})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"ping"}`, string(encoded[4:]))

	encoded, err = EncodeMessage(Auth{Token: "abc"})
	require.NoError(t, err)
	payload := string(encoded[4:])
	assert.True(t, strings.HasPrefix(payload, `{"type":"auth"`), "discriminator must lead the payload: %s", payload)
	assert.Contains(t, payload, `"token":"abc"`)
}

func TestDecodeNeedsMoreData(t *testing.T) {
	encoded, err := EncodeMessage(FileTransferProgress{TransferID: "t", BytesReceived: 7})
	require.NoError(t, err)

	// Every strict prefix must signal "need more data", not an error.
	for i := 0; i < len(encoded); i++ {
		msg, consumed, err := DecodeMessage(encoded[:i])
		require.NoError(t, err, "prefix of %d bytes", i)
		assert.Nil(t, msg, "prefix of %d bytes", i)
		assert.Zero(t, consumed, "prefix of %d bytes", i)
	}
}

func TestDecodeOversizeLengthPrefixFatal(t *testing.T) {
	// A prefix claiming 256 KiB + 1 must fail immediately with only the
	// 4 prefix bytes buffered.
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], limits.MaxControlMessage+1)
	_, _, err := DecodeMessage(prefix[:])
	require.ErrorIs(t, err, limits.ErrMessageTooLarge)
}

func TestEncodeOversizeMessageFails(t *testing.T) {
	msg := Auth{Token: strings.Repeat("a", limits.MaxControlMessage)}
	encoded, err := EncodeMessage(msg)
	require.ErrorIs(t, err, limits.ErrMessageTooLarge)
	assert.Nil(t, encoded, "nothing may be emitted on encode failure")
}

func TestDecodeUnknownTypeFatal(t *testing.T) {
	payload := []byte(`{"type":"warp_drive"}`)
	frame := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(frame[:4], uint32(len(payload)))
	copy(frame[4:], payload)

	_, _, err := DecodeMessage(frame)
	require.ErrorIs(t, err, ErrUnknownMessageType)
}

func TestDecodeMalformedJSONFatal(t *testing.T) {
	payload := []byte(`{"type":"auth",`)
	frame := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(frame[:4], uint32(len(payload)))
	copy(frame[4:], payload)

	_, _, err := DecodeMessage(frame)
	require.ErrorIs(t, err, ErrMalformedMessage)
}

func TestCodecIncrementalFeed(t *testing.T) {
	first, err := EncodeMessage(Ping{})
	require.NoError(t, err)
	second, err := EncodeMessage(Pong{})
	require.NoError(t, err)

	codec := NewCodec()

	// First message fed in two parts.
	codec.Feed(first[:3])
	msg, err := codec.DecodeNext()
	require.NoError(t, err)
	assert.Nil(t, msg)

	codec.Feed(first[3:])
	msg, err = codec.DecodeNext()
	require.NoError(t, err)
	assert.Equal(t, Ping{}, msg)

	// Second message fed whole.
	codec.Feed(second)
	msg, err = codec.DecodeNext()
	require.NoError(t, err)
	assert.Equal(t, Pong{}, msg)

	msg, err = codec.DecodeNext()
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestCodecConcatenatedMessages(t *testing.T) {
	variants := allMessageVariants()
	var stream bytes.Buffer
	for _, msg := range variants {
		encoded, err := EncodeMessage(msg)
		require.NoError(t, err)
		stream.Write(encoded)
	}

	codec := NewCodec()
	codec.Feed(stream.Bytes())

	for i, want := range variants {
		got, err := codec.DecodeNext()
		require.NoError(t, err, "message %d", i)
		require.NotNil(t, got, "message %d", i)
		assert.Equal(t, want, got, "message %d decoded out of order or corrupted", i)
	}

	got, err := codec.DecodeNext()
	require.NoError(t, err)
	assert.Nil(t, got, "exactly N messages must decode from N concatenated frames")
	assert.Zero(t, codec.Buffered())
}
