package tokens

import (
	"encoding/hex"
	"fmt"
	"time"

	paseto "aidanwoods.dev/go-paseto"
)

// PasetoSigner issues v4.public tokens.
type PasetoSigner struct {
	issuer string
	secret paseto.V4AsymmetricSecretKey
	public paseto.V4AsymmetricPublicKey
}

func NewPasetoSigner(keys KeyPair, issuer string) (*PasetoSigner, error) {
	secret, err := paseto.NewV4AsymmetricSecretKeyFromHex(hex.EncodeToString(keys.Private))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKey, err)
	}
	public, err := paseto.NewV4AsymmetricPublicKeyFromHex(hex.EncodeToString(keys.Public))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKey, err)
	}
	return &PasetoSigner{issuer: issuer, secret: secret, public: public}, nil
}

func (s *PasetoSigner) Sign(c Claims) (string, error) {
	if err := checkSignable(c); err != nil {
		return "", err
	}

	tok := paseto.NewToken()
	tok.SetIssuer(s.issuer)
	tok.SetSubject(c.AccountID)
	tok.SetExpiration(c.ExpiresAt)
	if !c.IssuedAt.IsZero() {
		tok.SetIssuedAt(c.IssuedAt)
		tok.SetNotBefore(c.IssuedAt)
	}
	if c.ID != "" {
		tok.SetJti(c.ID)
	}
	tok.SetString("typ", string(c.Kind))

	return tok.V4Sign(s.secret, nil), nil
}

func (s *PasetoSigner) Verify(token string, kind Kind, now time.Time) (*Claims, error) {
	// Validity window is checked against now below, not the wall clock.
	p := paseto.NewParserWithoutExpiryCheck()
	p.AddRule(paseto.IssuedBy(s.issuer))

	parsed, err := p.ParseV4Public(s.public, token, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	exp, err := parsed.GetExpiration()
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !now.Before(exp) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, ErrExpired)
	}
	if nbf, err := parsed.GetNotBefore(); err == nil && now.Before(nbf) {
		return nil, ErrInvalidToken
	}

	typ, err := parsed.GetString("typ")
	if err != nil || Kind(typ) != kind {
		return nil, ErrInvalidToken
	}
	sub, err := parsed.GetSubject()
	if err != nil || sub == "" {
		return nil, ErrInvalidToken
	}

	out := &Claims{
		AccountID: sub,
		Kind:      kind,
		Issuer:    s.issuer,
		ExpiresAt: exp,
	}
	if jti, err := parsed.GetJti(); err == nil {
		out.ID = jti
	}
	if iat, err := parsed.GetIssuedAt(); err == nil {
		out.IssuedAt = iat
	}
	return out, nil
}
