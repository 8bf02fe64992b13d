package transport

import (
	"fmt"
	"io"

	"github.com/parley-chat/parley/wire"
)

// authenticate runs the server side of the control-stream handshake: the
// first message must be Auth with a valid session token, acknowledged with
// Pong. Anything else fails the connection.
func authenticate(stream io.ReadWriter, validator *SessionValidator) (*SessionClaims, error) {
	codec := wire.NewFrameCodec()
	buf := make([]byte, 4096)
	for {
		frame, err := codec.DecodeNext()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
		}
		if frame == nil {
			n, err := stream.Read(buf)
			if n > 0 {
				codec.Feed(buf[:n])
			}
			if err != nil {
				return nil, fmt.Errorf("%w: stream closed before auth: %v", ErrAuthFailed, err)
			}
			continue
		}
		if frame.Type != wire.FrameControl {
			return nil, fmt.Errorf("%w: expected control frame, got type %d", ErrAuthFailed, frame.Type)
		}
		auth, ok := frame.Msg.(wire.Auth)
		if !ok {
			return nil, fmt.Errorf("%w: expected auth, got %T", ErrAuthFailed, frame.Msg)
		}
		claims, err := validator.Validate(auth.Token)
		if err != nil {
			return nil, err
		}
		if err := writeControl(stream, wire.Pong{}); err != nil {
			return nil, fmt.Errorf("%w: failed to ack auth: %v", ErrAuthFailed, err)
		}
		return claims, nil
	}
}

// login runs the client side: send Auth, wait for the Pong ack.
func login(stream io.ReadWriter, token string) error {
	if err := writeControl(stream, wire.Auth{Token: token}); err != nil {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	codec := wire.NewFrameCodec()
	buf := make([]byte, 4096)
	for {
		frame, err := codec.DecodeNext()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrAuthFailed, err)
		}
		if frame == nil {
			n, err := stream.Read(buf)
			if n > 0 {
				codec.Feed(buf[:n])
			}
			if err != nil {
				return fmt.Errorf("%w: stream closed before ack: %v", ErrAuthFailed, err)
			}
			continue
		}
		if frame.Type != wire.FrameControl {
			return fmt.Errorf("%w: expected control frame, got type %d", ErrAuthFailed, frame.Type)
		}
		if _, ok := frame.Msg.(wire.Pong); !ok {
			return fmt.Errorf("%w: expected pong ack, got %T", ErrAuthFailed, frame.Msg)
		}
		return nil
	}
}

func writeControl(w io.Writer, msg wire.ControlMessage) error {
	encoded, err := wire.EncodeFrame(wire.ControlFrame(msg))
	if err != nil {
		return err
	}
	_, err = w.Write(encoded)
	return err
}
