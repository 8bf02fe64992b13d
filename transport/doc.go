// Package transport adapts QUIC connections to the control and media
// planes.
//
// Each client holds one QUIC connection. The first bidirectional stream is
// the control stream: the client must open it with an Auth message carrying
// a session token before anything else, and the server acknowledges with
// Pong. Control messages and keepalive Ping/Pong flow over that stream for
// the life of the connection. Additional bidirectional streams carry file
// transfers and are handed to the transfer package's coordinators.
//
// Media frames ride unreliable QUIC datagrams as a fixed 16-byte header
// followed by the AEAD ciphertext. Loss is tolerated; ordering and
// retransmission are deliberately absent on that path.
package transport
