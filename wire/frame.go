package wire

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/parley-chat/parley/limits"
)

// FrameType is the 1-byte discriminator leading every stream frame.
type FrameType byte

const (
	// FrameControl carries a length-prefixed JSON control message.
	FrameControl FrameType = 0x00
	// FrameData carries a length-prefixed raw file data chunk.
	FrameData FrameType = 0x01
	// FrameEndOfData marks the end of file data. It has no payload.
	FrameEndOfData FrameType = 0x02
)

// ErrUnknownFrameType indicates a discriminator byte outside the known set.
// One buffered byte is always enough to resolve this, so it is a fatal
// protocol error, never "need more data".
var ErrUnknownFrameType = errors.New("unknown stream frame type")

// StreamFrame is one frame on a file transfer stream: a control message, a
// raw data chunk, or the end-of-data marker.
type StreamFrame struct {
	Type FrameType
	Msg  ControlMessage // set when Type == FrameControl
	Data []byte         // set when Type == FrameData
}

// ControlFrame wraps a control message in a stream frame.
func ControlFrame(msg ControlMessage) StreamFrame {
	return StreamFrame{Type: FrameControl, Msg: msg}
}

// DataFrame wraps a raw chunk in a stream frame.
func DataFrame(data []byte) StreamFrame {
	return StreamFrame{Type: FrameData, Data: data}
}

// EndOfDataFrame returns the end-of-data marker frame.
func EndOfDataFrame() StreamFrame {
	return StreamFrame{Type: FrameEndOfData}
}

// EncodeFrame serializes a stream frame:
//
//	0x00 | 4-byte length | JSON control payload   (≤ limits.MaxControlMessage)
//	0x01 | 4-byte length | raw chunk bytes        (≤ limits.MaxDataChunk)
//	0x02                                          (no payload)
//
// Nothing is emitted when a size limit is violated.
func EncodeFrame(frame StreamFrame) ([]byte, error) {
	switch frame.Type {
	case FrameControl:
		body, err := marshalMessage(frame.Msg)
		if err != nil {
			return nil, err
		}
		if err := limits.ValidateControlSize(len(body)); err != nil {
			return nil, err
		}
		out := make([]byte, 1+limits.LengthPrefixSize+len(body))
		out[0] = byte(FrameControl)
		binary.BigEndian.PutUint32(out[1:5], uint32(len(body)))
		copy(out[5:], body)
		return out, nil

	case FrameData:
		if err := limits.ValidateChunkSize(len(frame.Data)); err != nil {
			return nil, err
		}
		out := make([]byte, 1+limits.LengthPrefixSize+len(frame.Data))
		out[0] = byte(FrameData)
		binary.BigEndian.PutUint32(out[1:5], uint32(len(frame.Data)))
		copy(out[5:], frame.Data)
		return out, nil

	case FrameEndOfData:
		return []byte{byte(FrameEndOfData)}, nil

	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnknownFrameType, byte(frame.Type))
	}
}

// DecodeFrame attempts to decode one stream frame from buf. A consumed count
// of zero with a nil error means more bytes are needed. Oversized length
// prefixes and unknown discriminators fail immediately.
func DecodeFrame(buf []byte) (StreamFrame, int, error) {
	if len(buf) == 0 {
		return StreamFrame{}, 0, nil
	}
	switch FrameType(buf[0]) {
	case FrameControl:
		if len(buf) < 1+limits.LengthPrefixSize {
			return StreamFrame{}, 0, nil
		}
		payloadLen := binary.BigEndian.Uint32(buf[1:5])
		if err := limits.ValidateControlSize(int(payloadLen)); err != nil {
			return StreamFrame{}, 0, err
		}
		total := 1 + limits.LengthPrefixSize + int(payloadLen)
		if len(buf) < total {
			return StreamFrame{}, 0, nil
		}
		msg, err := unmarshalMessage(buf[5:total])
		if err != nil {
			return StreamFrame{}, 0, err
		}
		return ControlFrame(msg), total, nil

	case FrameData:
		if len(buf) < 1+limits.LengthPrefixSize {
			return StreamFrame{}, 0, nil
		}
		payloadLen := binary.BigEndian.Uint32(buf[1:5])
		if err := limits.ValidateChunkSize(int(payloadLen)); err != nil {
			return StreamFrame{}, 0, err
		}
		total := 1 + limits.LengthPrefixSize + int(payloadLen)
		if len(buf) < total {
			return StreamFrame{}, 0, nil
		}
		data := make([]byte, payloadLen)
		copy(data, buf[5:total])
		return DataFrame(data), total, nil

	case FrameEndOfData:
		return EndOfDataFrame(), 1, nil

	default:
		return StreamFrame{}, 0, fmt.Errorf("%w: 0x%02x", ErrUnknownFrameType, buf[0])
	}
}

// FrameCodec incrementally decodes stream frames from a byte stream. It is
// not safe for concurrent use; each stream owns one codec.
type FrameCodec struct {
	buf []byte
}

// NewFrameCodec creates an empty stream frame codec.
func NewFrameCodec() *FrameCodec {
	return &FrameCodec{buf: make([]byte, 0, 8192)}
}

// Feed appends bytes read from the stream to the internal buffer.
func (c *FrameCodec) Feed(data []byte) {
	c.buf = append(c.buf, data...)
}

// DecodeNext returns the next complete frame, or nil when more bytes are
// needed. Decode errors are fatal for the stream.
func (c *FrameCodec) DecodeNext() (*StreamFrame, error) {
	frame, consumed, err := DecodeFrame(c.buf)
	if err != nil {
		return nil, err
	}
	if consumed == 0 {
		return nil, nil
	}
	c.buf = c.buf[consumed:]
	return &frame, nil
}

// Buffered returns the number of bytes waiting in the codec.
func (c *FrameCodec) Buffered() int {
	return len(c.buf)
}
