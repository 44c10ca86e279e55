package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/session_auth/internal/db"
	"github.com/Skotchmaster/session_auth/internal/models"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()

	gdb, err := db.Open(context.Background(), db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })

	return New(gdb)
}

func draft(email string) *models.Account {
	return &models.Account{
		Username:     "u_" + email,
		Email:        email,
		FirstName:    "First",
		LastName:     "Last",
		PasswordHash: "hash",
	}
}

func TestCreate_FirstAccountClaimsMainAdmin(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	first := draft("alice@example.com")
	require.NoError(t, r.Create(ctx, first))
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, models.RoleMainAdmin, first.Role)

	second := draft("bob@example.com")
	require.NoError(t, r.Create(ctx, second))
	assert.Equal(t, models.RoleUser, second.Role)

	count, err := r.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	var claim models.AdminClaim
	require.NoError(t, r.DB.First(&claim, "name = ?", models.MainAdminClaim).Error)
	assert.Equal(t, first.ID, claim.AccountID)
}

func TestCreate_ExistingClaimIsNeverReissued(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.DB.Create(&models.AdminClaim{Name: models.MainAdminClaim, AccountID: "gone"}).Error)

	a := draft("carol@example.com")
	require.NoError(t, r.Create(ctx, a))
	assert.Equal(t, models.RoleUser, a.Role)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	orig := draft("alice@example.com")
	require.NoError(t, r.Create(ctx, orig))

	dup := draft("alice@example.com")
	dup.Username = "impostor"
	err := r.Create(ctx, dup)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	stored, err := r.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, orig.ID, stored.ID)
	assert.Equal(t, orig.Username, stored.Username)

	count, err := r.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestFind_NotFound(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	_, err := r.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEmailIsCaseSensitive(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, draft("dave@example.com")))
	_, err := r.FindByEmail(ctx, "Dave@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateAndRotateTokens(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	a := draft("bob@example.com")
	require.NoError(t, r.Create(ctx, a))

	require.NoError(t, r.UpdateTokens(ctx, a.ID, "access-1", "digest-1"))
	got, err := r.FindByID(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AccessToken)
	require.NotNil(t, got.RefreshTokenHash)
	assert.Equal(t, "access-1", *got.AccessToken)
	assert.Equal(t, "digest-1", *got.RefreshTokenHash)

	require.NoError(t, r.RotateTokens(ctx, a.ID, "digest-1", "access-2", "digest-2"))
	err = r.RotateTokens(ctx, a.ID, "digest-1", "access-3", "digest-3")
	assert.ErrorIs(t, err, ErrStaleToken)

	got, err = r.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "access-2", *got.AccessToken)
	assert.Equal(t, "digest-2", *got.RefreshTokenHash)

	require.NoError(t, r.ClearTokens(ctx, a.ID))
	got, err = r.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AccessToken)
	assert.Nil(t, got.RefreshTokenHash)

	err = r.RotateTokens(ctx, a.ID, "digest-2", "access-4", "digest-4")
	assert.ErrorIs(t, err, ErrStaleToken)
}

func TestUpdateTokens_UnknownAccount(t *testing.T) {
	r := newTestRepo(t)
	err := r.UpdateTokens(context.Background(), "missing", "a", "d")
	assert.ErrorIs(t, err, ErrNotFound)
}
