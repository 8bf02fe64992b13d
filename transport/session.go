package transport

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// ErrAuthFailed indicates an invalid, expired, or missing session token
// during the connection handshake.
var ErrAuthFailed = errors.New("session authentication failed")

// SessionClaims is the payload of a session token presented in the opening
// Auth message. It identifies the connecting user for the lifetime of the
// connection.
type SessionClaims struct {
	UserID    int64  `json:"sub"`
	SessionID string `json:"sid,omitempty"`
	ExpiresAt int64  `json:"exp"`
	IssuedAt  int64  `json:"iat"`
}

// GetExpirationTime implements jwt.Claims.
func (c *SessionClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	if c.ExpiresAt == 0 {
		return nil, nil
	}
	return jwt.NewNumericDate(time.Unix(c.ExpiresAt, 0)), nil
}

// GetIssuedAt implements jwt.Claims.
func (c *SessionClaims) GetIssuedAt() (*jwt.NumericDate, error) {
	if c.IssuedAt == 0 {
		return nil, nil
	}
	return jwt.NewNumericDate(time.Unix(c.IssuedAt, 0)), nil
}

// GetNotBefore implements jwt.Claims.
func (c *SessionClaims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }

// GetIssuer implements jwt.Claims.
func (c *SessionClaims) GetIssuer() (string, error) { return "", nil }

// GetSubject implements jwt.Claims.
func (c *SessionClaims) GetSubject() (string, error) {
	return strconv.FormatInt(c.UserID, 10), nil
}

// GetAudience implements jwt.Claims.
func (c *SessionClaims) GetAudience() (jwt.ClaimStrings, error) { return nil, nil }

// SessionValidator verifies HMAC-SHA256 session tokens against a shared
// server secret.
type SessionValidator struct {
	secret []byte
}

// NewSessionValidator creates a validator for the given signing secret.
func NewSessionValidator(secret []byte) *SessionValidator {
	return &SessionValidator{secret: secret}
}

// Validate parses and verifies a session token, enforcing the HS256
// algorithm and the expiry.
func (v *SessionValidator) Validate(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Validate",
			"error":    err,
		}).Warn("Session token rejected")
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("%w: token invalid", ErrAuthFailed)
	}
	return claims, nil
}

// SignSessionToken issues a session token for the given claims using
// HMAC-SHA256.
func SignSessionToken(secret []byte, claims *SessionClaims) (string, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, nil
}
