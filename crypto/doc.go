// Package crypto implements per-frame authenticated encryption for media
// payloads using AES-128-GCM with per-epoch sender keys.
//
// Each media frame is encrypted independently. The frame's fixed 16-byte
// header is passed as additional authenticated data (AAD): header fields stay
// readable by relays but any tampering breaks authentication on decrypt.
//
// The nonce is a pure function of (ssrc, epoch, sequence):
//
//	Bytes 0-3:  SSRC (u32 big-endian)
//	Byte 4:     Key epoch
//	Bytes 5-6:  Sequence number (u16 big-endian)
//	Bytes 7-11: Zero
//
// Reusing one (ssrc, epoch, sequence) triple under the same key is a security
// violation, not merely a bug: GCM nonce reuse leaks the authentication key.
// Senders must rotate to a new epoch before a sequence number wraps.
//
// Keys are held per epoch (0-255). During rotation the old and the new epoch
// keys are both installed, so in-flight frames from either epoch decrypt;
// RemoveKey revokes the old epoch once drained. There is no default key:
// a frame naming an epoch with no installed key is a hard failure.
//
// Encryption is fully deterministic. Identical (key, header, ssrc, epoch,
// sequence, plaintext) always produces byte-identical ciphertext, which the
// known-answer tests pin down so independent client implementations can
// verify interoperability.
package crypto
