package crypto

// FrameEncryptor encrypts media frame payloads with per-epoch keys.
// It is safe for concurrent use.
type FrameEncryptor struct {
	keys keyring
}

// NewFrameEncryptor creates an encryptor with no keys installed.
func NewFrameEncryptor() *FrameEncryptor {
	return &FrameEncryptor{}
}

// SetKey installs or replaces the encryption key for an epoch.
func (e *FrameEncryptor) SetKey(epoch uint8, key [KeySize]byte) error {
	return e.keys.setKey(epoch, key)
}

// RemoveKey revokes the encryption key for an epoch.
func (e *FrameEncryptor) RemoveKey(epoch uint8) {
	e.keys.removeKey(epoch)
}

// Encrypt encrypts one frame payload.
//
// header is the serialized 16-byte media header, authenticated as AAD.
// ssrc, epoch and sequence must match the header fields; they form the nonce.
// The returned ciphertext is len(plaintext)+TagSize bytes. An empty plaintext
// is legal and yields a tag-only ciphertext.
func (e *FrameEncryptor) Encrypt(header [HeaderSize]byte, ssrc uint32, epoch uint8, sequence uint16, plaintext []byte) ([]byte, error) {
	aead, err := e.keys.get(epoch)
	if err != nil {
		return nil, err
	}
	nonce := BuildNonce(ssrc, epoch, sequence)
	return aead.Seal(nil, nonce[:], plaintext, header[:]), nil
}
