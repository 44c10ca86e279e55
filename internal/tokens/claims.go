package tokens

import (
	"errors"
	"time"
)

type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpired      = errors.New("token expired")
	ErrKey          = errors.New("invalid signing key")
)

// Claims is the payload carried by both access and refresh tokens.
// Issuer is filled in by the Signer and ignored on input.
type Claims struct {
	AccountID string
	Kind      Kind
	ID        string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Signer produces and checks tamper-evident tokens.
type Signer interface {
	Sign(c Claims) (string, error)
	// Verify checks signature, issuer, validity window and token kind at now.
	Verify(token string, kind Kind, now time.Time) (*Claims, error)
}

const (
	FormatPaseto = "paseto"
	FormatJWT    = "jwt"
)

func NewSigner(format string, keys KeyPair, issuer string) (Signer, error) {
	switch format {
	case FormatPaseto, "":
		return NewPasetoSigner(keys, issuer)
	case FormatJWT:
		return NewJWTSigner(keys, issuer)
	default:
		return nil, errors.New("unknown token format " + format)
	}
}

func checkSignable(c Claims) error {
	if c.AccountID == "" {
		return errors.New("claims: empty account id")
	}
	if c.Kind != KindAccess && c.Kind != KindRefresh {
		return errors.New("claims: unknown kind")
	}
	if c.ExpiresAt.IsZero() {
		return errors.New("claims: missing expiry")
	}
	return nil
}
