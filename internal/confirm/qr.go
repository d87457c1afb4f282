// Package confirm issues and verifies signed codes that confirm offline
// missions. A code is an HS256 JWT rendered as a QR code at the mission's
// location; scanning it proves the cadet was there.
package confirm

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is how long an issued code stays valid.
const DefaultTTL = 24 * time.Hour

var (
	// ErrInvalidCode covers malformed codes, bad signatures and wrong
	// signing methods.
	ErrInvalidCode = errors.New("confirmation code is invalid")

	// ErrExpiredCode is returned for codes past their expiry.
	ErrExpiredCode = errors.New("confirmation code is expired")

	// ErrMissionMismatch is returned when a valid code belongs to a
	// different mission.
	ErrMissionMismatch = errors.New("confirmation code is for a different mission")
)

// Code is an issued confirmation code.
type Code struct {
	Token     string    `json:"token"`
	MissionID string    `json:"mission_id"`
	ID        string    `json:"jti"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Claims are the verified contents of a code.
type Claims struct {
	MissionID string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type codeClaims struct {
	jwt.RegisteredClaims
	MissionID string `json:"mission_id"`
}

// Signer issues and verifies codes with a shared secret.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner creates a signer. ttl <= 0 selects DefaultTTL; now may be nil.
func NewSigner(secret string, ttl time.Duration, now func() time.Time) (*Signer, error) {
	if len(secret) < 16 {
		return nil, errors.New("qr secret must be at least 16 bytes")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: now}, nil
}

// Issue signs a new code for missionID.
func (s *Signer) Issue(missionID string) (Code, error) {
	missionID = strings.TrimSpace(missionID)
	if missionID == "" {
		return Code{}, errors.New("issue code: mission id is required")
	}
	now := s.now().UTC().Truncate(time.Second)
	claims := codeClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		MissionID: missionID,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Code{}, fmt.Errorf("sign code: %w", err)
	}
	return Code{
		Token:     token,
		MissionID: missionID,
		ID:        claims.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}, nil
}

// Verify checks the code's signing method, signature and expiry, and that
// it was issued for missionID.
func (s *Signer) Verify(token, missionID string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, ErrInvalidCode
	}

	var parsed codeClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidCode, err)
	}

	if parsed.ID == "" || parsed.ExpiresAt == nil {
		return Claims{}, fmt.Errorf("%w: missing jti or exp", ErrInvalidCode)
	}
	exp := parsed.ExpiresAt.Time.UTC()
	if !exp.After(s.now().UTC()) {
		return Claims{}, ErrExpiredCode
	}
	if parsed.MissionID == "" || parsed.MissionID != missionID {
		return Claims{}, ErrMissionMismatch
	}

	c := Claims{MissionID: parsed.MissionID, ID: parsed.ID, ExpiresAt: exp}
	if parsed.IssuedAt != nil {
		c.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return c, nil
}
