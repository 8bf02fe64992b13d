// Package wire implements the control message protocol carried over QUIC
// bidirectional streams.
//
// Control messages are a closed tagged union serialized as JSON with a "type"
// discriminator, framed with a 4-byte big-endian length prefix. File transfer
// streams additionally multiplex raw data chunks next to control messages
// using a 1-byte frame discriminator (see StreamFrame).
//
// Both codecs are incremental: feed bytes as they arrive from the stream and
// drain complete messages:
//
//	codec := wire.NewCodec()
//	codec.Feed(chunk)
//	for {
//	    msg, err := codec.DecodeNext()
//	    if err != nil {
//	        // fatal protocol error, tear down the stream
//	    }
//	    if msg == nil {
//	        break // need more bytes
//	    }
//	    handle(msg)
//	}
//
// Oversized length prefixes and unknown discriminators are fatal protocol
// errors, never "need more data": both are fully resolvable from the bytes
// already buffered.
package wire
