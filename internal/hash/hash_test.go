package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNew_CostBounds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultCost, New(0).Cost)
	assert.Equal(t, DefaultCost, New(bcrypt.MaxCost+1).Cost)
	assert.Equal(t, bcrypt.MinCost, New(bcrypt.MinCost).Cost)
	assert.Equal(t, 12, New(12).Cost)
}

func TestHasher_HashAndCheck(t *testing.T) {
	t.Parallel()

	h := New(bcrypt.MinCost)
	hashed, err := h.Hash("pw1")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", hashed)
	assert.True(t, strings.HasPrefix(hashed, "$2a$"))

	assert.True(t, h.Check(hashed, "pw1"))
	assert.False(t, h.Check(hashed, "pw2"))
	assert.False(t, h.Check("not-a-hash", "pw1"))
}

func TestHasher_Salted(t *testing.T) {
	t.Parallel()

	h := New(bcrypt.MinCost)
	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHasher_DefaultCostRecorded(t *testing.T) {
	t.Parallel()

	hashed, err := New(DefaultCost).Hash("pw")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hashed))
	require.NoError(t, err)
	assert.Equal(t, DefaultCost, cost)
}

func TestHasher_TooLongPassword(t *testing.T) {
	t.Parallel()

	_, err := New(bcrypt.MinCost).Hash(strings.Repeat("x", 73))
	require.ErrorIs(t, err, ErrPasswordTooLong)
}
