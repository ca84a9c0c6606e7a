package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	user := &models.User{ID: "u1", Email: "a@x.com", Name: "Alice", Role: models.RoleManager, AdminID: "owner"}

	token, err := m.Generate(user)
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)

	p := claims.Principal()
	assert.Equal(t, "u1", p.ID)
	assert.Equal(t, "a@x.com", p.Email)
	assert.Equal(t, "Alice", p.Name)
	assert.Equal(t, "manager", p.Role)
	assert.Equal(t, "owner", p.AdminID)
}

func TestJWTManager_LegacyUserDefaults(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	token, err := m.Generate(&models.User{ID: "u1", Email: "a@x.com"})
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "u1", claims.AdminID)
}

func TestJWTManager_Rejects(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	user := &models.User{ID: "u1", Email: "a@x.com"}

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewJWTManager("other-secret", time.Hour).Generate(user)
		require.NoError(t, err)
		_, err = m.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := NewJWTManager("test-secret", -time.Minute).Generate(user)
		require.NoError(t, err)
		_, err = m.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Validate("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
