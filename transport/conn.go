package transport

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/quic-go/quic-go"
	"github.com/sirupsen/logrus"

	"github.com/parley-chat/parley/media"
	"github.com/parley-chat/parley/wire"
)

// Conn is one authenticated realtime connection. Control messages flow
// over the control stream, media frames over datagrams, and file transfers
// over additional bidirectional streams.
type Conn struct {
	qc        *quic.Conn
	control   *quic.Stream
	codec     *wire.FrameCodec
	userID    int64
	sessionID string

	writeMu sync.Mutex
	readBuf []byte
}

func newConn(qc *quic.Conn, control *quic.Stream, userID int64, sessionID string) *Conn {
	return &Conn{
		qc:        qc,
		control:   control,
		codec:     wire.NewFrameCodec(),
		userID:    userID,
		sessionID: sessionID,
		readBuf:   make([]byte, 32*1024),
	}
}

// UserID returns the authenticated user, or zero on the client side.
func (c *Conn) UserID() int64 { return c.userID }

// SessionID returns the session identifier from the auth token, if any.
func (c *Conn) SessionID() string { return c.sessionID }

// RemoteAddr returns the peer's address.
func (c *Conn) RemoteAddr() net.Addr { return c.qc.RemoteAddr() }

// SendControl writes one control message to the control stream. Safe for
// concurrent use.
func (c *Conn) SendControl(msg wire.ControlMessage) error {
	encoded, err := wire.EncodeFrame(wire.ControlFrame(msg))
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if _, err := c.control.Write(encoded); err != nil {
		return fmt.Errorf("control write failed: %w", err)
	}
	return nil
}

// ReadControl blocks until the next control message arrives on the control
// stream. Only the connection's serving goroutine may call it.
func (c *Conn) ReadControl() (wire.ControlMessage, error) {
	for {
		frame, err := c.codec.DecodeNext()
		if err != nil {
			return nil, err
		}
		if frame != nil {
			if frame.Type != wire.FrameControl {
				return nil, fmt.Errorf("unexpected frame type %d on control stream", frame.Type)
			}
			return frame.Msg, nil
		}
		n, err := c.control.Read(c.readBuf)
		if n > 0 {
			c.codec.Feed(c.readBuf[:n])
		}
		if err != nil {
			return nil, fmt.Errorf("control read failed: %w", err)
		}
	}
}

// Serve reads control messages until the stream fails or the context ends,
// answering Ping keepalives itself and passing everything else to handle.
// A handler error tears the loop down.
func (c *Conn) Serve(ctx context.Context, handle func(wire.ControlMessage) error) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.control.CancelRead(quic.StreamErrorCode(0))
		case <-done:
		}
	}()

	for {
		msg, err := c.ReadControl()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if _, ok := msg.(wire.Ping); ok {
			if err := c.SendControl(wire.Pong{}); err != nil {
				return err
			}
			continue
		}
		if err := handle(msg); err != nil {
			return err
		}
	}
}

// SendMediaFrame ships one encrypted media frame as a datagram. Delivery
// is unreliable.
func (c *Conn) SendMediaFrame(header [media.HeaderSize]byte, ciphertext []byte) error {
	if err := c.qc.SendDatagram(buildMediaDatagram(header, ciphertext)); err != nil {
		return fmt.Errorf("datagram send failed: %w", err)
	}
	return nil
}

// ReceiveMediaFrame blocks for the next media datagram and splits it into
// the parsed header and the ciphertext payload.
func (c *Conn) ReceiveMediaFrame(ctx context.Context) (media.Header, []byte, error) {
	datagram, err := c.qc.ReceiveDatagram(ctx)
	if err != nil {
		return media.Header{}, nil, fmt.Errorf("datagram receive failed: %w", err)
	}
	return splitMediaDatagram(datagram)
}

// AcceptTransferStream waits for the peer to open a bidirectional stream,
// which carries exactly one upload or download.
func (c *Conn) AcceptTransferStream(ctx context.Context) (*quic.Stream, error) {
	stream, err := c.qc.AcceptStream(ctx)
	if err != nil {
		return nil, fmt.Errorf("stream accept failed: %w", err)
	}
	return stream, nil
}

// OpenTransferStream opens a bidirectional stream for one upload or
// download.
func (c *Conn) OpenTransferStream(ctx context.Context) (*quic.Stream, error) {
	stream, err := c.qc.OpenStreamSync(ctx)
	if err != nil {
		return nil, fmt.Errorf("stream open failed: %w", err)
	}
	return stream, nil
}

// Close tears the connection down with a normal close.
func (c *Conn) Close() error {
	logrus.WithFields(logrus.Fields{
		"function": "Close",
		"user_id":  c.userID,
	}).Debug("Closing connection")
	return c.qc.CloseWithError(quic.ApplicationErrorCode(0), "")
}
