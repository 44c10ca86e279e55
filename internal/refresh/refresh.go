package refresh

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/Skotchmaster/session_auth/internal/models"
	"github.com/Skotchmaster/session_auth/internal/tokens"
)

const (
	DefaultTTL = 7 * 24 * time.Hour
	// idBytes of entropy in every token id.
	idBytes = 32
)

// Issued is a freshly generated refresh token. Only Digest is meant for storage.
type Issued struct {
	Token     string
	Digest    string
	ExpiresAt time.Time
}

// Manager generates and checks refresh tokens. It performs no I/O;
// persisting the digest belongs to the account registry.
type Manager struct {
	Signer tokens.Signer
	TTL    time.Duration
}

func NewManager(signer tokens.Signer, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{Signer: signer, TTL: ttl}
}

func (m *Manager) Issue(accountID string, now time.Time) (Issued, error) {
	jti, err := newID()
	if err != nil {
		return Issued{}, fmt.Errorf("refresh id: %w", err)
	}
	exp := now.Add(m.TTL)
	token, err := m.Signer.Sign(tokens.Claims{
		AccountID: accountID,
		Kind:      tokens.KindRefresh,
		ID:        jti,
		IssuedAt:  now,
		ExpiresAt: exp,
	})
	if err != nil {
		return Issued{}, err
	}
	return Issued{Token: token, Digest: Digest(token), ExpiresAt: exp}, nil
}

// Parse verifies the presented token cryptographically. It says nothing about
// whether the token is still the account's current one; see Validate.
func (m *Manager) Parse(token string, now time.Time) (*tokens.Claims, error) {
	return m.Signer.Verify(token, tokens.KindRefresh, now)
}

// Validate reports whether presented is the refresh token currently stored for the account.
func (m *Manager) Validate(account *models.Account, presented string) bool {
	if account == nil || account.RefreshTokenHash == nil || presented == "" {
		return false
	}
	stored := *account.RefreshTokenHash
	return subtle.ConstantTimeCompare([]byte(stored), []byte(Digest(presented))) == 1
}

func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
