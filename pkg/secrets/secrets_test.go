package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvSecret(t *testing.T) {
	t.Setenv("CASTELLAN_TEST_SECRET", "hunter2")

	s := NewEnvSecret("CASTELLAN_TEST_SECRET")
	value, err := s.Value()
	require.NoError(t, err)
	assert.Equal(t, "hunter2", value)
}

func TestEnvSecretMissing(t *testing.T) {
	s := NewEnvSecret("CASTELLAN_TEST_SECRET_DOES_NOT_EXIST")
	_, err := s.Value()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CASTELLAN_TEST_SECRET_DOES_NOT_EXIST")
}

func TestEnvSecretResolvesOnce(t *testing.T) {
	t.Setenv("CASTELLAN_TEST_SECRET_ONCE", "first")

	s := NewEnvSecret("CASTELLAN_TEST_SECRET_ONCE")
	value, err := s.Value()
	require.NoError(t, err)
	assert.Equal(t, "first", value)

	// Later environment changes don't affect the cached value.
	t.Setenv("CASTELLAN_TEST_SECRET_ONCE", "second")
	value, err = s.Value()
	require.NoError(t, err)
	assert.Equal(t, "first", value)
}

func TestStatic(t *testing.T) {
	value, err := Static("token").Value()
	require.NoError(t, err)
	assert.Equal(t, "token", value)
}
