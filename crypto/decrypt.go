package crypto

import "fmt"

// FrameDecryptor decrypts media frame payloads with per-epoch keys. Multiple
// epochs may be active at once so in-flight frames decrypt across a key
// rotation. It is safe for concurrent use.
type FrameDecryptor struct {
	keys keyring
}

// NewFrameDecryptor creates a decryptor with no keys installed.
func NewFrameDecryptor() *FrameDecryptor {
	return &FrameDecryptor{}
}

// SetKey installs or replaces the decryption key for an epoch.
func (d *FrameDecryptor) SetKey(epoch uint8, key [KeySize]byte) error {
	return d.keys.setKey(epoch, key)
}

// RemoveKey revokes the decryption key for an epoch.
func (d *FrameDecryptor) RemoveKey(epoch uint8) {
	d.keys.removeKey(epoch)
}

// Decrypt authenticates and decrypts one frame payload.
//
// Any mismatch in key, nonce inputs, header AAD or ciphertext yields
// ErrDecryptionFailed; there is no partial or unauthenticated output.
func (d *FrameDecryptor) Decrypt(header [HeaderSize]byte, ssrc uint32, epoch uint8, sequence uint16, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < TagSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrCiphertextTooShort, len(ciphertext))
	}
	aead, err := d.keys.get(epoch)
	if err != nil {
		return nil, err
	}
	nonce := BuildNonce(ssrc, epoch, sequence)
	plaintext, err := aead.Open(nil, nonce[:], ciphertext, header[:])
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
