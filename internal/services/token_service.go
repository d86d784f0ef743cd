package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"tourbase/internal/common"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ResetSecretTTL is how long a password-reset secret stays redeemable.
const ResetSecretTTL = 10 * time.Minute

// SessionClaims is what a verified session token carries.
type SessionClaims struct {
	UserID   uuid.UUID
	IssuedAt time.Time
}

// TokenService issues and verifies session tokens and derives password-reset
// secrets. It is pure computation over the configured secret; it holds no
// state and touches no store.
type TokenService interface {
	IssueSessionToken(userID uuid.UUID) (string, error)
	VerifySessionToken(token string) (*SessionClaims, error)
	NewPasswordResetSecret() (plain, hash string, expires time.Time, err error)
	HashResetSecret(plain string) string
}

type tokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret string, ttl time.Duration) TokenService {
	return &tokenService{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

func (s *tokenService) IssueSessionToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// VerifySessionToken checks signature and expiry. Every failure collapses to
// ErrInvalidToken; the HTTP layer decides how to respond.
func (s *tokenService) VerifySessionToken(tokenString string) (*SessionClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, common.ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	if claims.IssuedAt == nil {
		return nil, common.ErrInvalidToken
	}

	return &SessionClaims{UserID: userID, IssuedAt: claims.IssuedAt.Time}, nil
}

// NewPasswordResetSecret generates the plaintext shown once to the user and
// the hash that gets persisted. Only the hash ever touches the store.
func (s *tokenService) NewPasswordResetSecret() (string, string, time.Time, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", time.Time{}, fmt.Errorf("failed to generate reset secret: %w", err)
	}
	plain := hex.EncodeToString(buf)
	return plain, s.HashResetSecret(plain), time.Now().Add(ResetSecretTTL), nil
}

func (s *tokenService) HashResetSecret(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
