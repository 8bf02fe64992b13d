package wire

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/parley-chat/parley/limits"
)

// ErrUnknownMessageType indicates a JSON "type" discriminator outside the
// closed ControlMessage set. This is a fatal protocol error.
var ErrUnknownMessageType = errors.New("unknown control message type")

// ErrMalformedMessage indicates a control message payload that is not valid
// JSON or does not match its declared variant.
var ErrMalformedMessage = errors.New("malformed control message")

// EncodeMessage serializes a control message into a length-prefixed frame:
// 4-byte big-endian payload length followed by the JSON payload. Messages
// whose payload exceeds limits.MaxControlMessage fail with
// limits.ErrMessageTooLarge and nothing is emitted.
func EncodeMessage(msg ControlMessage) ([]byte, error) {
	body, err := marshalMessage(msg)
	if err != nil {
		return nil, err
	}
	if err := limits.ValidateControlSize(len(body)); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":     "EncodeMessage",
			"message_type": msg.messageType(),
			"payload_size": len(body),
		}).Error("Control message exceeds size limit")
		return nil, err
	}

	out := make([]byte, limits.LengthPrefixSize+len(body))
	binary.BigEndian.PutUint32(out[:limits.LengthPrefixSize], uint32(len(body)))
	copy(out[limits.LengthPrefixSize:], body)
	return out, nil
}

// DecodeMessage attempts to decode one length-prefixed control message from
// buf. It returns (nil, 0, nil) when buf does not yet hold a complete frame.
// On success it returns the message and the number of bytes consumed.
//
// A length prefix claiming more than limits.MaxControlMessage is rejected
// immediately: the violation is already certain, waiting for more bytes
// would only buffer an attacker's payload.
func DecodeMessage(buf []byte) (ControlMessage, int, error) {
	if len(buf) < limits.LengthPrefixSize {
		return nil, 0, nil
	}
	payloadLen := binary.BigEndian.Uint32(buf[:limits.LengthPrefixSize])
	if err := limits.ValidateControlSize(int(payloadLen)); err != nil {
		return nil, 0, err
	}
	total := limits.LengthPrefixSize + int(payloadLen)
	if len(buf) < total {
		return nil, 0, nil
	}
	msg, err := unmarshalMessage(buf[limits.LengthPrefixSize:total])
	if err != nil {
		return nil, 0, err
	}
	return msg, total, nil
}

// marshalMessage produces the tagged JSON payload for a message: the
// variant's own fields with the "type" discriminator spliced in front.
func marshalMessage(msg ControlMessage) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: nil message", ErrMalformedMessage)
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	tag := fmt.Sprintf(`{"type":%q`, msg.messageType())
	if len(body) == 2 { // fieldless variant marshaled as "{}"
		return []byte(tag + "}"), nil
	}
	merged := make([]byte, 0, len(tag)+len(body))
	merged = append(merged, tag...)
	merged = append(merged, ',')
	merged = append(merged, body[1:]...)
	return merged, nil
}

// decodeAs parses the payload into one concrete variant.
func decodeAs[T ControlMessage](data []byte) (ControlMessage, error) {
	var m T
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return m, nil
}

// unmarshalMessage parses a tagged JSON payload into its concrete variant.
func unmarshalMessage(data []byte) (ControlMessage, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch probe.Type {
	case TypeAuth:
		return decodeAs[Auth](data)
	case TypeSubscribe:
		return decodeAs[Subscribe](data)
	case TypeUnsubscribe:
		return decodeAs[Unsubscribe](data)
	case TypeKeyAnnounce:
		return decodeAs[KeyAnnounce](data)
	case TypeKeyDeliver:
		return decodeAs[KeyDeliver](data)
	case TypeBandwidthFeedback:
		return decodeAs[BandwidthFeedback](data)
	case TypePing:
		return Ping{}, nil
	case TypePong:
		return Pong{}, nil
	case TypeFileTransferInit:
		return decodeAs[FileTransferInit](data)
	case TypeFileTransferAccept:
		return decodeAs[FileTransferAccept](data)
	case TypeFileTransferReject:
		return decodeAs[FileTransferReject](data)
	case TypeFileDownloadReq:
		return decodeAs[FileDownloadRequest](data)
	case TypeFileDownloadAccept:
		return decodeAs[FileDownloadAccept](data)
	case TypeFileTransferProg:
		return decodeAs[FileTransferProgress](data)
	case TypeFileTransferDone:
		return decodeAs[FileTransferDone](data)
	case TypeFileTransferError:
		return decodeAs[FileTransferError](data)
	case TypeFileTransferCancel:
		return decodeAs[FileTransferCancel](data)
	default:
		logrus.WithFields(logrus.Fields{
			"function":     "unmarshalMessage",
			"message_type": probe.Type,
		}).Error("Unknown control message type")
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, probe.Type)
	}
}

// Codec incrementally decodes length-prefixed control messages from a byte
// stream. It is not safe for concurrent use; each stream owns one codec.
type Codec struct {
	buf []byte
}

// NewCodec creates an empty control message codec.
func NewCodec() *Codec {
	return &Codec{buf: make([]byte, 0, 4096)}
}

// Feed appends bytes read from the stream to the internal buffer.
func (c *Codec) Feed(data []byte) {
	c.buf = append(c.buf, data...)
}

// DecodeNext returns the next complete control message, or nil when more
// bytes are needed. The buffer advances only past fully consumed messages;
// a decode error leaves the buffer untouched and is fatal for the stream.
func (c *Codec) DecodeNext() (ControlMessage, error) {
	msg, consumed, err := DecodeMessage(c.buf)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, nil
	}
	c.buf = c.buf[consumed:]
	return msg, nil
}

// Buffered returns the number of bytes waiting in the codec.
func (c *Codec) Buffered() int {
	return len(c.buf)
}
