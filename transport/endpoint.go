package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/sirupsen/logrus"
)

const (
	handshakeTimeout = 10 * time.Second
	idleTimeout      = 30 * time.Second
	keepAlivePeriod  = 10 * time.Second
)

// ALPN protocol identifier for the realtime plane.
const NextProto = "parley-rt"

func quicConfig() *quic.Config {
	return &quic.Config{
		MaxIdleTimeout:  idleTimeout,
		KeepAlivePeriod: keepAlivePeriod,
		EnableDatagrams: true,
	}
}

// Endpoint is the server side of the realtime plane: a QUIC listener that
// authenticates each incoming connection before handing it out.
type Endpoint struct {
	listener  *quic.Listener
	validator *SessionValidator
}

// Listen binds a QUIC endpoint on addr. TLS material is the caller's
// concern; sessionSecret verifies the Auth tokens clients present.
func Listen(addr string, tlsConf *tls.Config, sessionSecret []byte) (*Endpoint, error) {
	tlsConf = tlsConf.Clone()
	if len(tlsConf.NextProtos) == 0 {
		tlsConf.NextProtos = []string{NextProto}
	}
	listener, err := quic.ListenAddr(addr, tlsConf, quicConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	logrus.WithFields(logrus.Fields{
		"function": "Listen",
		"address":  listener.Addr(),
	}).Info("Realtime endpoint listening")
	return &Endpoint{
		listener:  listener,
		validator: NewSessionValidator(sessionSecret),
	}, nil
}

// Addr returns the bound address.
func (e *Endpoint) Addr() net.Addr {
	return e.listener.Addr()
}

// Accept waits for the next connection and runs the Auth handshake on its
// first bidirectional stream. Connections that fail to authenticate within
// the handshake window are closed and skipped.
func (e *Endpoint) Accept(ctx context.Context) (*Conn, error) {
	for {
		qc, err := e.listener.Accept(ctx)
		if err != nil {
			return nil, fmt.Errorf("accept failed: %w", err)
		}
		conn, err := e.handshake(ctx, qc)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Accept",
				"remote":   qc.RemoteAddr(),
				"error":    err,
			}).Warn("Connection rejected")
			qc.CloseWithError(quic.ApplicationErrorCode(1), "authentication failed")
			continue
		}
		return conn, nil
	}
}

func (e *Endpoint) handshake(ctx context.Context, qc *quic.Conn) (*Conn, error) {
	hctx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()

	control, err := qc.AcceptStream(hctx)
	if err != nil {
		return nil, fmt.Errorf("%w: no control stream: %v", ErrAuthFailed, err)
	}
	control.SetReadDeadline(time.Now().Add(handshakeTimeout))
	claims, err := authenticate(control, e.validator)
	control.SetReadDeadline(time.Time{})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"function": "handshake",
		"user_id":  claims.UserID,
		"remote":   qc.RemoteAddr(),
	}).Info("Connection authenticated")
	return newConn(qc, control, claims.UserID, claims.SessionID), nil
}

// Close shuts the listener down. Established connections are unaffected.
func (e *Endpoint) Close() error {
	return e.listener.Close()
}

// Dial connects to a realtime endpoint and authenticates with the given
// session token.
func Dial(ctx context.Context, addr string, tlsConf *tls.Config, sessionToken string) (*Conn, error) {
	tlsConf = tlsConf.Clone()
	if len(tlsConf.NextProtos) == 0 {
		tlsConf.NextProtos = []string{NextProto}
	}
	qc, err := quic.DialAddr(ctx, addr, tlsConf, quicConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	control, err := qc.OpenStreamSync(ctx)
	if err != nil {
		qc.CloseWithError(quic.ApplicationErrorCode(0), "")
		return nil, fmt.Errorf("failed to open control stream: %w", err)
	}
	if err := login(control, sessionToken); err != nil {
		qc.CloseWithError(quic.ApplicationErrorCode(1), "authentication failed")
		return nil, err
	}
	return newConn(qc, control, 0, ""), nil
}
