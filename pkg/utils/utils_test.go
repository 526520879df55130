package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hashed, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hashed)
	assert.True(t, CheckPassword("s3cret-pass", hashed))
	assert.False(t, CheckPassword("wrong", hashed))
	assert.False(t, CheckPassword("s3cret-pass", "not-a-hash"))

	_, err = HashPassword(strings.Repeat("x", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestNameFromEmail(t *testing.T) {
	assert.Equal(t, "ivan.petrov", NameFromEmail("ivan.petrov@example.com"))
	assert.Equal(t, "User", NameFromEmail("nobody"))
	assert.Equal(t, "a", NameFromEmail("a@b@c"))
}

func TestNormalizeEmail(t *testing.T) {
	got, ok := NormalizeEmail("  Ana@Example.COM ")
	assert.True(t, ok)
	assert.Equal(t, "ana@example.com", got)

	_, ok = NormalizeEmail("not an email")
	assert.False(t, ok)
	_, ok = NormalizeEmail("Ana <ana@example.com>")
	assert.False(t, ok)
}
