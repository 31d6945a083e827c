package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const downloadAudience = "report-download"

// ErrInvalidToken covers malformed, forged and expired download tokens.
var ErrInvalidToken = errors.New("storage: invalid download token")

// DownloadClaims binds a token to one stored file.
type DownloadClaims struct {
	File string `json:"file"`
	jwt.RegisteredClaims
}

// SignedURLSigner issues HS256 tokens for archived downloads.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner builds a signer; ttl <= 0 means 24h.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate returns a token for file and its expiry.
func (s *SignedURLSigner) Generate(file string) (string, time.Time, error) {
	if file == "" {
		return "", time.Time{}, fmt.Errorf("file required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	issued := s.now()
	expiresAt := issued.Add(s.ttl)
	claims := DownloadClaims{
		File: file,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Audience:  jwt.ClaimStrings{downloadAudience},
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign download token: %w", err)
	}
	return token, expiresAt, nil
}

// Parse validates token and returns the file it grants.
func (s *SignedURLSigner) Parse(token string) (string, time.Time, error) {
	claims := &DownloadClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(downloadAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.File == "" {
		return "", time.Time{}, ErrInvalidToken
	}
	return claims.File, claims.ExpiresAt.Time, nil
}
