package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// KeySize is the AES-128 key size in bytes.
const KeySize = 16

// TagSize is the GCM authentication tag size in bytes.
const TagSize = 16

// NonceSize is the AES-GCM nonce size in bytes (96 bits).
const NonceSize = 12

// HeaderSize is the media frame header size used as AAD.
const HeaderSize = 16

// ErrNoKeyForEpoch indicates no key is installed for the frame's epoch.
var ErrNoKeyForEpoch = errors.New("no key available for epoch")

// ErrDecryptionFailed indicates GCM authentication failed: wrong key, wrong
// nonce inputs, or a tampered header or ciphertext.
var ErrDecryptionFailed = errors.New("decryption failed: authentication error")

// ErrCiphertextTooShort indicates a ciphertext shorter than the GCM tag.
var ErrCiphertextTooShort = errors.New("ciphertext too short")

// BuildNonce derives the deterministic 12-byte nonce for a frame.
func BuildNonce(ssrc uint32, epoch uint8, sequence uint16) [NonceSize]byte {
	var nonce [NonceSize]byte
	nonce[0] = byte(ssrc >> 24)
	nonce[1] = byte(ssrc >> 16)
	nonce[2] = byte(ssrc >> 8)
	nonce[3] = byte(ssrc)
	nonce[4] = epoch
	nonce[5] = byte(sequence >> 8)
	nonce[6] = byte(sequence)
	// Bytes 7-11 remain zero.
	return nonce
}

// keyring holds one AEAD cipher per epoch. Epochs are a single byte, so a
// fixed 256-entry array indexed by epoch replaces a map. Key installs arrive
// on the control path while frames encrypt on the media path, hence the
// RWMutex.
type keyring struct {
	mu      sync.RWMutex
	ciphers [256]cipher.AEAD
}

// setKey installs or replaces the key for an epoch.
func (k *keyring) setKey(epoch uint8, key [KeySize]byte) error {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return fmt.Errorf("creating cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("creating GCM: %w", err)
	}

	k.mu.Lock()
	k.ciphers[epoch] = aead
	k.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "setKey",
		"epoch":    epoch,
	}).Debug("Installed frame key for epoch")
	return nil
}

// removeKey revokes the key for an epoch.
func (k *keyring) removeKey(epoch uint8) {
	k.mu.Lock()
	k.ciphers[epoch] = nil
	k.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "removeKey",
		"epoch":    epoch,
	}).Debug("Revoked frame key for epoch")
}

// get returns the AEAD for an epoch, or ErrNoKeyForEpoch.
func (k *keyring) get(epoch uint8) (cipher.AEAD, error) {
	k.mu.RLock()
	aead := k.ciphers[epoch]
	k.mu.RUnlock()

	if aead == nil {
		return nil, fmt.Errorf("%w: %d", ErrNoKeyForEpoch, epoch)
	}
	return aead, nil
}
