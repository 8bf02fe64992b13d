package transfer

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Claims is the payload of a single-use upload token. The token binds the
// uploading user, the transfer id, the destination channel, the filename,
// and the declared total size, and carries a short expiry.
type Claims struct {
	UserID     int64  `json:"sub"`
	TransferID string `json:"tid"`
	ChannelID  int64  `json:"cid"`
	Filename   string `json:"fname"`
	FileSize   uint64 `json:"fsize"`
	ExpiresAt  int64  `json:"exp"`
	IssuedAt   int64  `json:"iat"`
}

// GetExpirationTime implements jwt.Claims.
func (c *Claims) GetExpirationTime() (*jwt.NumericDate, error) {
	if c.ExpiresAt == 0 {
		return nil, nil
	}
	return jwt.NewNumericDate(time.Unix(c.ExpiresAt, 0)), nil
}

// GetIssuedAt implements jwt.Claims.
func (c *Claims) GetIssuedAt() (*jwt.NumericDate, error) {
	if c.IssuedAt == 0 {
		return nil, nil
	}
	return jwt.NewNumericDate(time.Unix(c.IssuedAt, 0)), nil
}

// GetNotBefore implements jwt.Claims.
func (c *Claims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }

// GetIssuer implements jwt.Claims.
func (c *Claims) GetIssuer() (string, error) { return "", nil }

// GetSubject implements jwt.Claims.
func (c *Claims) GetSubject() (string, error) {
	return strconv.FormatInt(c.UserID, 10), nil
}

// GetAudience implements jwt.Claims.
func (c *Claims) GetAudience() (jwt.ClaimStrings, error) { return nil, nil }

// TokenValidator checks an upload token and returns its claims. Validation
// failures of any kind surface as ErrAuthFailed.
type TokenValidator interface {
	Validate(token string) (*Claims, error)
}

// HMACValidator validates tokens signed with HMAC-SHA256 and a shared
// server secret.
type HMACValidator struct {
	secret []byte
}

// NewHMACValidator creates a validator for the given signing secret.
func NewHMACValidator(secret []byte) *HMACValidator {
	return &HMACValidator{secret: secret}
}

// Validate parses and verifies the token. The signature, the HS256
// algorithm, and the expiry are all enforced.
func (v *HMACValidator) Validate(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Validate",
			"error":    err,
		}).Warn("Upload token rejected")
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("%w: token invalid", ErrAuthFailed)
	}
	return claims, nil
}

// SignToken issues an upload token for the given claims using HMAC-SHA256.
func SignToken(secret []byte, claims *Claims) (string, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign upload token: %w", err)
	}
	return token, nil
}

// NewTransferID generates a fresh unique transfer id.
func NewTransferID() string {
	return uuid.NewString()
}
