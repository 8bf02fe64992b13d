// Package media implements the fixed 16-byte media frame header that rides
// in front of every encrypted voice/video payload.
//
// The header is not secret: the transport authenticates it as AAD (see the
// crypto package) so tampering is detectable, while relays can still read
// routing fields without a key.
package media

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderSize is the serialized size of a media frame header in bytes.
const HeaderSize = 16

// ProtocolVersion is the current media header version.
const ProtocolVersion = 1

// TrackType identifies the media category of a frame.
type TrackType uint8

const (
	// TrackTypeAudio is a voice frame (48 kHz clock).
	TrackTypeAudio TrackType = 0
	// TrackTypeVideo is a video frame (90 kHz clock).
	TrackTypeVideo TrackType = 1
)

// ErrBufferTooShort indicates fewer than HeaderSize bytes were supplied.
var ErrBufferTooShort = errors.New("media header buffer too short")

// ErrInvalidTrackType indicates a track bit outside the known set. With a
// single bit this cannot currently happen on decode, but encoders validate
// against it.
var ErrInvalidTrackType = errors.New("invalid track type")

// Header is the 16-byte media frame header.
//
//	Byte 0:      [V:1][T:1][R:2][SimLayer:4]
//	Bytes 1-2:   Sequence number (u16 BE)
//	Bytes 3-6:   Timestamp (u32 BE)
//	Bytes 7-10:  SSRC (u32 BE)
//	Byte 11:     Audio level (dBov 0-127, 127 = silence)
//	Byte 12:     Key epoch
//	Bytes 13-14: Payload length (u16 BE)
//	Byte 15:     Reserved
type Header struct {
	Version        uint8
	Track          TrackType
	SimulcastLayer uint8
	Sequence       uint16
	Timestamp      uint32
	SSRC           uint32
	AudioLevel     uint8
	KeyEpoch       uint8
	PayloadLength  uint16
}

// NewHeader creates a header with protocol defaults for a track.
func NewHeader(track TrackType, ssrc uint32) Header {
	return Header{
		Version:    ProtocolVersion,
		Track:      track,
		SSRC:       ssrc,
		AudioLevel: 127, // silence
	}
}

// Validate checks the header's fields fit their wire encoding.
func (h Header) Validate() error {
	if h.Track > TrackTypeVideo {
		return fmt.Errorf("%w: %d", ErrInvalidTrackType, h.Track)
	}
	return nil
}

// Encode serializes the header into its fixed 16-byte form.
func (h Header) Encode() [HeaderSize]byte {
	var out [HeaderSize]byte
	out[0] = ((h.Version & 0x01) << 7) | ((uint8(h.Track) & 0x01) << 6) | (h.SimulcastLayer & 0x0F)
	binary.BigEndian.PutUint16(out[1:3], h.Sequence)
	binary.BigEndian.PutUint32(out[3:7], h.Timestamp)
	binary.BigEndian.PutUint32(out[7:11], h.SSRC)
	out[11] = h.AudioLevel
	out[12] = h.KeyEpoch
	binary.BigEndian.PutUint16(out[13:15], h.PayloadLength)
	// Byte 15 stays zero (reserved).
	return out
}

// Decode parses a header from the first HeaderSize bytes of buf.
func Decode(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("%w: expected %d, got %d", ErrBufferTooShort, HeaderSize, len(buf))
	}
	h := Header{
		Version:        (buf[0] >> 7) & 0x01,
		Track:          TrackType((buf[0] >> 6) & 0x01),
		SimulcastLayer: buf[0] & 0x0F,
		Sequence:       binary.BigEndian.Uint16(buf[1:3]),
		Timestamp:      binary.BigEndian.Uint32(buf[3:7]),
		SSRC:           binary.BigEndian.Uint32(buf[7:11]),
		AudioLevel:     buf[11],
		KeyEpoch:       buf[12],
		PayloadLength:  binary.BigEndian.Uint16(buf[13:15]),
	}
	return h, nil
}

// String renders the header for log output.
func (h Header) String() string {
	track := "audio"
	if h.Track == TrackTypeVideo {
		track = "video"
	}
	return fmt.Sprintf("Header(v=%d, %s, layer=%d, seq=%d, ts=%d, ssrc=%#x, level=%d, epoch=%d, len=%d)",
		h.Version, track, h.SimulcastLayer, h.Sequence, h.Timestamp, h.SSRC, h.AudioLevel, h.KeyEpoch, h.PayloadLength)
}
