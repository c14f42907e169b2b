package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-service/internal/config"
	"delivery-service/internal/model"
)

func newTestManager(ttl time.Duration) *Manager {
	return NewManager(&config.Config{
		Auth: config.AuthConfig{
			JWTSecret: "test-secret-not-for-production",
			TokenTTL:  ttl,
		},
	})
}

func testUser() *model.User {
	return &model.User{
		UserID: "u-1",
		Email:  "ada@example.com",
		Role:   model.RoleCourier,
	}
}

func TestIssueAndVerify(t *testing.T) {
	mgr := newTestManager(time.Hour)

	signed, err := mgr.Issue(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := mgr.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, model.RoleCourier, claims.Role)
	assert.Equal(t, "delivery-service", claims.Issuer)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	mgr := newTestManager(time.Hour)

	_, err := mgr.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	mgr := newTestManager(time.Hour)
	signed, err := mgr.Issue(testUser())
	require.NoError(t, err)

	other := NewManager(&config.Config{
		Auth: config.AuthConfig{JWTSecret: "a-different-secret", TokenTTL: time.Hour},
	})
	_, err = other.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpired(t *testing.T) {
	mgr := newTestManager(-time.Minute)
	signed, err := mgr.Issue(testUser())
	require.NoError(t, err)

	_, err = mgr.Verify(signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
}
