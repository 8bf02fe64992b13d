package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	header := Header{
		Version:        1,
		Track:          TrackTypeAudio,
		SimulcastLayer: 0,
		Sequence:       1234,
		Timestamp:      567890,
		SSRC:           0xDEADBEEF,
		AudioLevel:     42,
		KeyEpoch:       3,
		PayloadLength:  960,
	}

	encoded := header.Encode()
	decoded, err := Decode(encoded[:])
	require.NoError(t, err)
	assert.Equal(t, header, decoded)
}

func TestHeaderVideoSimulcastRoundTrip(t *testing.T) {
	header := Header{
		Version:        1,
		Track:          TrackTypeVideo,
		SimulcastLayer: 2,
		Sequence:       100,
		Timestamp:      9000,
		SSRC:           0x12345678,
		AudioLevel:     127,
		KeyEpoch:       1,
		PayloadLength:  4096,
	}

	encoded := header.Encode()
	decoded, err := Decode(encoded[:])
	require.NoError(t, err)
	assert.Equal(t, header, decoded)
}

func TestHeaderKnownEncoding(t *testing.T) {
	// Matches the byte layout the crypto test vectors use as AAD.
	header := Header{
		Version:       1,
		Track:         TrackTypeAudio,
		Sequence:      1,
		Timestamp:     960,
		SSRC:          0xDEADBEEF,
		AudioLevel:    127,
		KeyEpoch:      1,
		PayloadLength: 60,
	}
	want := [HeaderSize]byte{
		0x80, 0x00, 0x01, 0x00, 0x00, 0x03, 0xC0, 0xDE,
		0xAD, 0xBE, 0xEF, 0x7F, 0x01, 0x00, 0x3C, 0x00,
	}
	assert.Equal(t, want, header.Encode())
}

func TestHeaderBufferTooShort(t *testing.T) {
	_, err := Decode(make([]byte, 8))
	require.ErrorIs(t, err, ErrBufferTooShort)
}

func TestHeaderValidate(t *testing.T) {
	h := NewHeader(TrackTypeVideo, 1)
	require.NoError(t, h.Validate())

	h.Track = TrackType(2)
	require.ErrorIs(t, h.Validate(), ErrInvalidTrackType)
}

func TestNewHeaderDefaults(t *testing.T) {
	h := NewHeader(TrackTypeAudio, 0xCAFE)
	assert.Equal(t, uint8(ProtocolVersion), h.Version)
	assert.Equal(t, uint32(0xCAFE), h.SSRC)
	assert.Equal(t, uint8(127), h.AudioLevel, "fresh headers default to silence")
	assert.Equal(t, uint8(0), h.KeyEpoch)
}
