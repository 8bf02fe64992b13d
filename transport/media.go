package transport

import (
	"errors"
	"fmt"

	"github.com/parley-chat/parley/media"
)

// ErrDatagramTooShort indicates a media datagram smaller than the fixed
// header.
var ErrDatagramTooShort = errors.New("media datagram too short")

// buildMediaDatagram lays out one media frame as header || ciphertext.
func buildMediaDatagram(header [media.HeaderSize]byte, ciphertext []byte) []byte {
	datagram := make([]byte, media.HeaderSize+len(ciphertext))
	copy(datagram, header[:])
	copy(datagram[media.HeaderSize:], ciphertext)
	return datagram
}

// splitMediaDatagram separates a received datagram into its parsed header
// and the ciphertext payload.
func splitMediaDatagram(datagram []byte) (media.Header, []byte, error) {
	if len(datagram) < media.HeaderSize {
		return media.Header{}, nil, fmt.Errorf("%w: %d bytes", ErrDatagramTooShort, len(datagram))
	}
	header, err := media.Decode(datagram[:media.HeaderSize])
	if err != nil {
		return media.Header{}, nil, err
	}
	return header, datagram[media.HeaderSize:], nil
}
