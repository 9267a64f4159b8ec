// Package formtoken issues the anti-forgery token embedded in the public
// form. A token is an HS256 JWT bound to one session token.
package formtoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalid = errors.New("invalid or expired form token")

const issuer = "tg_contact_form"

type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSigner(secret string, ttl time.Duration) *Signer {
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *Signer) Issue(sessionToken string) (string, error) {
	now := s.now().UTC()
	claims := Claims{
		SessionID: sessionToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify fails on a bad signature, an expired token or a session mismatch.
func (s *Signer) Verify(token, sessionToken string) error {
	if token == "" || sessionToken == "" {
		return ErrInvalid
	}
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !tok.Valid {
		return ErrInvalid
	}
	if claims.SessionID != sessionToken {
		return ErrInvalid
	}
	return nil
}
