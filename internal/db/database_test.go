package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/session_auth/internal/models"
)

func TestOpen_SQLiteMemoryAndMigrate(t *testing.T) {
	ctx := context.Background()

	gdb, err := Open(ctx, DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(gdb) })

	require.NoError(t, Migrate(gdb))
	assert.True(t, gdb.Migrator().HasTable(&models.Account{}))
	assert.True(t, gdb.Migrator().HasTable(&models.AdminClaim{}))
	assert.True(t, gdb.Migrator().HasIndex(&models.Account{}, "Email"))
	require.NoError(t, Ping(ctx, gdb))
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, DriverSQLite, "")
	require.Error(t, err)

	_, err = Open(ctx, "mongo", "mongodb://localhost")
	require.ErrorContains(t, err, "unsupported DB_DRIVER")
}
