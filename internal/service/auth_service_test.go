package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-service/internal/bucketing"
	"delivery-service/internal/config"
	"delivery-service/internal/hashing"
	"delivery-service/internal/model"
	"delivery-service/internal/repository/memory"
	"delivery-service/internal/token"
)

func newAuthTestService(t *testing.T) *AuthService {
	t.Helper()

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret: "test-secret-not-for-production",
			TokenTTL:  time.Hour,
		},
		Hashing: config.HashingConfig{
			Argon2MemoryCost:  8 * 1024,
			Argon2TimeCost:    1,
			Argon2Parallelism: 1,
			Pepper:            "test-pepper",
		},
		Bucketing: config.BucketingConfig{UserBuckets: 64, LockShards: 16},
	}

	locks := NewKeyedLocks(bucketing.NewBucketingManager(cfg))
	return NewAuthService(memory.NewUserRepository(), hashing.NewHasher(cfg), token.NewManager(cfg), locks)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Ada", "Ada@Example.com", "correct-horse", model.RoleCourier)
	require.NoError(t, err)
	assert.NotEmpty(t, user.UserID)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotEmpty(t, user.PasswordHash)

	signed, loggedIn, err := svc.Login(ctx, "ada@example.com", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, signed)
	assert.Equal(t, user.UserID, loggedIn.UserID)

	claims, err := svc.VerifyToken(signed)
	require.NoError(t, err)
	assert.Equal(t, user.UserID, claims.UserID)
	assert.Equal(t, model.RoleCourier, claims.Role)
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuthTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "ada@example.com", "correct-horse", model.RoleCustomer)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Register(ctx, "Ada", "not-an-email", "correct-horse", model.RoleCustomer)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Register(ctx, "Ada", "ada@example.com", "short", model.RoleCustomer)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Register(ctx, "Ada", "ada@example.com", "correct-horse", "Wizard")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newAuthTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ada", "ada@example.com", "correct-horse", model.RoleCustomer)
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Other Ada", "ada@example.com", "different-pass", model.RoleAdmin)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestLoginFailures(t *testing.T) {
	svc := newAuthTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ada", "ada@example.com", "correct-horse", model.RoleCustomer)
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "nobody@example.com", "correct-horse")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = svc.Login(ctx, "ada@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = svc.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListUsers(t *testing.T) {
	svc := newAuthTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ada", "ada@example.com", "correct-horse", model.RoleCustomer)
	require.NoError(t, err)
	_, err = svc.Register(ctx, "Bo", "bo@example.com", "another-pass", model.RoleAdmin)
	require.NoError(t, err)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "ada@example.com", users[0].Email)
	assert.Equal(t, "bo@example.com", users[1].Email)
}
