package transfer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	validator := NewHMACValidator(testSecret)
	token := makeUploadToken(t, "transfer-1", "photo.png", 12345)

	claims, err := validator.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "transfer-1", claims.TransferID)
	assert.Equal(t, int64(7), claims.ChannelID)
	assert.Equal(t, "photo.png", claims.Filename)
	assert.Equal(t, uint64(12345), claims.FileSize)
}

func TestTokenWrongSecret(t *testing.T) {
	validator := NewHMACValidator([]byte("a different secret"))
	token := makeUploadToken(t, "transfer-1", "photo.png", 12345)

	_, err := validator.Validate(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuthFailed))
}

func TestTokenExpired(t *testing.T) {
	token, err := SignToken(testSecret, &Claims{
		UserID:     42,
		TransferID: "transfer-1",
		Filename:   "photo.png",
		FileSize:   100,
		ExpiresAt:  time.Now().Add(-time.Minute).Unix(),
		IssuedAt:   time.Now().Add(-time.Hour).Unix(),
	})
	require.NoError(t, err)

	_, err = NewHMACValidator(testSecret).Validate(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuthFailed))
}

func TestTokenMissingExpiry(t *testing.T) {
	token, err := SignToken(testSecret, &Claims{
		UserID:     42,
		TransferID: "transfer-1",
		Filename:   "photo.png",
		FileSize:   100,
	})
	require.NoError(t, err)

	_, err = NewHMACValidator(testSecret).Validate(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuthFailed))
}

func TestTokenGarbage(t *testing.T) {
	_, err := NewHMACValidator(testSecret).Validate("not.a.token")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuthFailed))
}

func TestNewTransferID(t *testing.T) {
	a := NewTransferID()
	b := NewTransferID()
	assert.NotEqual(t, a, b)
	assert.True(t, ValidTransferID(a))
	assert.True(t, ValidTransferID(b))
}
