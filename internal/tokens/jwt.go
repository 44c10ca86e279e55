package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type jwtClaims struct {
	Kind Kind `json:"typ"`
	jwt.RegisteredClaims
}

type JWTSigner struct {
	issuer string
	keys   KeyPair
}

func NewJWTSigner(keys KeyPair, issuer string) (*JWTSigner, error) {
	if len(keys.Private) == 0 || len(keys.Public) == 0 {
		return nil, ErrKey
	}
	return &JWTSigner{issuer: issuer, keys: keys}, nil
}

func (s *JWTSigner) Sign(c Claims) (string, error) {
	if err := checkSignable(c); err != nil {
		return "", err
	}
	claims := jwtClaims{
		Kind: c.Kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   c.AccountID,
			ID:        c.ID,
			ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
		},
	}
	if !c.IssuedAt.IsZero() {
		claims.IssuedAt = jwt.NewNumericDate(c.IssuedAt)
		claims.NotBefore = jwt.NewNumericDate(c.IssuedAt)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(s.keys.Private)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

func (s *JWTSigner) Verify(tokenStr string, kind Kind, now time.Time) (*Claims, error) {
	var claims jwtClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodEdDSA.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return s.keys.Public, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidToken, ErrExpired)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tkn.Valid || claims.Kind != kind || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	out := &Claims{
		AccountID: claims.Subject,
		Kind:      claims.Kind,
		ID:        claims.ID,
		Issuer:    claims.Issuer,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}
