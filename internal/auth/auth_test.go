package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-reservation-backend/config"
	"parking-reservation-backend/internal/db/dbtest"
	"parking-reservation-backend/internal/model"
	"parking-reservation-backend/internal/store"
)

func newService(t *testing.T) *Service {
	t.Helper()
	return NewService(store.NewGormStore(dbtest.NewSQLite(t)), &config.AuthConfig{
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
	})
}

func TestService_RegisterLoginParse(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, "  Alice@Example.com ", "Alice", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", session.User.Email)
	assert.Equal(t, model.RoleUser, session.User.Role)
	assert.NotEmpty(t, session.Token)

	principal, err := svc.ParseToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, model.Principal{
		ID:    session.User.ID,
		Email: "alice@example.com",
		Name:  "Alice",
		Role:  model.RoleUser,
	}, principal)

	_, err = svc.Register(ctx, "alice@example.com", "Other", "hunter22")
	assert.ErrorIs(t, err, ErrEmailTaken)

	login, err := svc.Login(ctx, "ALICE@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, login.User.ID)

	_, err = svc.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	me, err := svc.Me(ctx, principal)
	require.NoError(t, err)
	assert.Equal(t, "Alice", me.Name)
}

func TestService_RegisterValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	testCases := []struct {
		name, email, user, password string
	}{
		{"bad email", "not-an-email", "Alice", "hunter22"},
		{"missing name", "alice@example.com", "  ", "hunter22"},
		{"short password", "alice@example.com", "Alice", "abc"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.email, tc.user, tc.password)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestService_ParseTokenRejects(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, "bob@example.com", "Bob", "hunter22")
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { svc.now = time.Now }()
		_, err := svc.ParseToken(session.Token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewService(svc.store, &config.AuthConfig{JWTSecret: "other", TokenTTL: time.Hour})
		_, err := other.ParseToken(session.Token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			Role:             model.RoleAdmin,
			RegisteredClaims: jwt.RegisteredClaims{Subject: "attacker"},
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.ParseToken(unsigned)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ParseToken("not.a.token")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestService_EnsureAdmin(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	seed := config.SeedAccount{Email: "admin@parking.local", Name: "Admin", Password: "admin123"}

	require.NoError(t, svc.EnsureAdmin(ctx, seed))
	require.NoError(t, svc.EnsureAdmin(ctx, seed), "seeding twice is a no-op")

	session, err := svc.Login(ctx, seed.Email, seed.Password)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, session.User.Role)

	assert.NoError(t, svc.EnsureAdmin(ctx, config.SeedAccount{}), "empty seed is skipped")
}
