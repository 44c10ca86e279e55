package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/session_auth/internal/events"
	"github.com/Skotchmaster/session_auth/internal/hash"
	"github.com/Skotchmaster/session_auth/internal/logging"
	"github.com/Skotchmaster/session_auth/internal/metrics"
	"github.com/Skotchmaster/session_auth/internal/models"
	"github.com/Skotchmaster/session_auth/internal/refresh"
	"github.com/Skotchmaster/session_auth/internal/repo"
	"github.com/Skotchmaster/session_auth/internal/tokens"
)

const DefaultAccessTTL = 15 * time.Minute

// AccountStore is the persistence boundary of the account registry.
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByID(ctx context.Context, id string) (*models.Account, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, a *models.Account) error
	UpdateTokens(ctx context.Context, id, accessToken, refreshDigest string) error
	RotateTokens(ctx context.Context, id, prevDigest, accessToken, refreshDigest string) error
	ClearTokens(ctx context.Context, id string) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Check(hash, password string) bool
}

type AuthService struct {
	Repo          AccountStore
	Hasher        PasswordHasher
	Signer        tokens.Signer
	RefreshTokens *refresh.Manager
	AccessTTL     time.Duration
	Events        events.Publisher
	Metrics       *metrics.Recorder
	Now           func() time.Time
}

type RegisterInput struct {
	Username       string
	Email          string
	Password       string
	FirstName      string
	LastName       string
	ProfilePicture string
}

// Session is the outcome of a login or a refresh.
type Session struct {
	Account          *models.Account
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *AuthService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return DefaultAccessTTL
}

func (s *AuthService) unavailable(l *slog.Logger, msg string, err error) error {
	l.Error(msg, "status", 500, "error", err)
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// publish is best-effort: a lost event never fails the operation.
func (s *AuthService) publish(ctx context.Context, l *slog.Logger, typ string, account *models.Account) {
	if s.Events == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Events.Publish(pubCtx, events.New(typ, account, s.now())); err != nil {
		l.Error("event_publish_failed", "type", typ, "error", err)
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (_ *models.Account, err error) {
	started := time.Now()
	defer func() { s.Metrics.Observe(metrics.OpRegister, resultOf(err), started) }()
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if in.Username == "" || in.Email == "" || in.Password == "" {
		l.Warn("register_failed", "status", 400, "reason", "missing fields")
		return nil, fmt.Errorf("%w: username, email and password are required", ErrBadRequest)
	}

	if _, err := s.Repo.FindByEmail(ctx, in.Email); err == nil {
		l.Warn("register_failed", "status", 409, "reason", "account exists")
		return nil, fmt.Errorf("%w: user already exists", ErrAlreadyExists)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, s.unavailable(l, "register_failed", err)
	}

	pwHash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, hash.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: password is too long", ErrBadRequest)
		}
		return nil, s.unavailable(l, "register_failed", err)
	}

	account := &models.Account{
		Username:       in.Username,
		Email:          in.Email,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		ProfilePicture: in.ProfilePicture,
		PasswordHash:   pwHash,
	}
	if err := s.Repo.Create(ctx, account); err != nil {
		if errors.Is(err, repo.ErrAlreadyExists) {
			l.Warn("register_failed", "status", 409, "reason", "account exists")
			return nil, fmt.Errorf("%w: user already exists", ErrAlreadyExists)
		}
		return nil, s.unavailable(l, "register_failed", err)
	}

	l.Info("register_success", "account_id", account.ID, "role", account.Role)
	s.publish(ctx, l, events.TypeRegistered, account)
	return account, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (_ *Session, err error) {
	started := time.Now()
	defer func() { s.Metrics.Observe(metrics.OpLogin, resultOf(err), started) }()
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if email == "" || password == "" {
		l.Warn("login_failed", "status", 400, "reason", "missing fields")
		return nil, fmt.Errorf("%w: email and password are required", ErrBadRequest)
	}

	account, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login_failed", "status", 404, "reason", "unknown account")
			return nil, fmt.Errorf("%w: user not found", ErrNotFound)
		}
		return nil, s.unavailable(l, "login_failed", err)
	}
	l = l.With("account_id", account.ID)

	if !s.Hasher.Check(account.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password")
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}

	sess, digest, err := s.issuePair(account, s.now())
	if err != nil {
		return nil, s.unavailable(l, "login_failed", err)
	}
	if err := s.Repo.UpdateTokens(ctx, account.ID, sess.AccessToken, digest); err != nil {
		return nil, s.unavailable(l, "login_failed", err)
	}
	account.AccessToken = &sess.AccessToken
	account.RefreshTokenHash = &digest

	l.Info("login_successful")
	s.publish(ctx, l, events.TypeLoggedIn, account)
	return sess, nil
}

// Refresh exchanges the current refresh token for a new pair. The presented
// token stops working as soon as this returns successfully.
func (s *AuthService) Refresh(ctx context.Context, presented string) (_ *Session, err error) {
	started := time.Now()
	defer func() { s.Metrics.Observe(metrics.OpRefresh, resultOf(err), started) }()
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if presented == "" {
		return nil, fmt.Errorf("%w: no refresh token provided", ErrUnauthenticated)
	}

	now := s.now()
	claims, err := s.RefreshTokens.Parse(presented, now)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", "invalid token", "error", err)
		return nil, fmt.Errorf("%w: invalid or expired refresh token", ErrUnauthorized)
	}
	l = l.With("account_id", claims.AccountID)

	account, err := s.Repo.FindByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("refresh_failed", "status", 401, "reason", "unknown account")
			return nil, fmt.Errorf("%w: invalid refresh token", ErrUnauthenticated)
		}
		return nil, s.unavailable(l, "refresh_failed", err)
	}
	if !s.RefreshTokens.Validate(account, presented) {
		l.Warn("refresh_failed", "status", 401, "reason", "token is not current")
		return nil, fmt.Errorf("%w: invalid refresh token", ErrUnauthenticated)
	}

	sess, digest, err := s.issuePair(account, now)
	if err != nil {
		return nil, s.unavailable(l, "refresh_failed", err)
	}
	if err := s.Repo.RotateTokens(ctx, account.ID, refresh.Digest(presented), sess.AccessToken, digest); err != nil {
		if errors.Is(err, repo.ErrStaleToken) {
			l.Warn("refresh_failed", "status", 401, "reason", "concurrent rotation")
			return nil, fmt.Errorf("%w: invalid refresh token", ErrUnauthenticated)
		}
		return nil, s.unavailable(l, "refresh_failed", err)
	}
	account.AccessToken = &sess.AccessToken
	account.RefreshTokenHash = &digest

	l.Info("refresh_successful")
	s.publish(ctx, l, events.TypeRefreshed, account)
	return sess, nil
}

// LogOut drops the stored token pair when presented is the account's current
// refresh token. Anything else is a no-op.
func (s *AuthService) LogOut(ctx context.Context, presented string) (err error) {
	started := time.Now()
	defer func() { s.Metrics.Observe(metrics.OpLogout, resultOf(err), started) }()
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	if presented == "" {
		return nil
	}
	claims, err := s.RefreshTokens.Parse(presented, s.now())
	if err != nil {
		return nil
	}
	account, err := s.Repo.FindByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		return s.unavailable(l, "logout_failed", err)
	}
	if !s.RefreshTokens.Validate(account, presented) {
		return nil
	}
	if err := s.Repo.ClearTokens(ctx, account.ID); err != nil {
		return s.unavailable(l, "logout_failed", err)
	}

	l.Info("successful_logout", "account_id", account.ID)
	s.publish(ctx, l, events.TypeLoggedOut, account)
	return nil
}

// Authenticate checks an access token. The persisted copy on the account is
// not consulted; access tokens live until they expire.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*tokens.Claims, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("%w: missing access token", ErrUnauthenticated)
	}
	claims, err := s.Signer.Verify(accessToken, tokens.KindAccess, s.now())
	if err != nil {
		logging.FromContext(ctx).Debug("access_token_rejected", "error", err)
		return nil, fmt.Errorf("%w: invalid or expired token", ErrUnauthorized)
	}
	return claims, nil
}

func (s *AuthService) Me(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := s.Repo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: user not found", ErrNotFound)
		}
		return nil, s.unavailable(logging.FromContext(ctx).With("svc", "auth.me"), "me_failed", err)
	}
	return account, nil
}

func (s *AuthService) issuePair(account *models.Account, now time.Time) (*Session, string, error) {
	accessExp := now.Add(s.accessTTL())
	access, err := s.Signer.Sign(tokens.Claims{
		AccountID: account.ID,
		Kind:      tokens.KindAccess,
		ID:        uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: accessExp,
	})
	if err != nil {
		return nil, "", fmt.Errorf("sign access token: %w", err)
	}

	issued, err := s.RefreshTokens.Issue(account.ID, now)
	if err != nil {
		return nil, "", fmt.Errorf("issue refresh token: %w", err)
	}

	return &Session{
		Account:          account,
		AccessToken:      access,
		RefreshToken:     issued.Token,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: issued.ExpiresAt,
	}, issued.Digest, nil
}

// Ready reports whether the account store answers queries.
func (s *AuthService) Ready(ctx context.Context) error {
	if _, err := s.Repo.Count(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
