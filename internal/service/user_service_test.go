package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"autoassist/internal/auth"
	"autoassist/internal/config"
	"autoassist/internal/domain"
	"autoassist/internal/models"
	"autoassist/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userFixture struct {
	svc      *UserService
	tokens   *auth.TokenManager
	sessions *repository.MemorySessionStore
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	tokens := auth.NewTokenManager(config.APIAuthConfig{
		JWTSecret: "0123456789abcdef0123456789abcdef",
		TokenTTL:  time.Hour,
		Issuer:    "autoassist",
	})
	sessions := repository.NewMemorySessionStore()
	return &userFixture{
		svc:      NewUserService(setupServiceDB(t), tokens, sessions, testLogger()),
		tokens:   tokens,
		sessions: sessions,
	}
}

func customerReg(username string) models.Registration {
	return models.Registration{
		Username: username,
		Password: "s3cret-pass",
		FullName: "Priya Nair",
		Email:    username + "@example.com",
		Phone:    "+91 98450 00000",
	}
}

func TestRegister(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	reg := customerReg("priya")
	reg.Username = "  Priya "
	user, err := f.svc.Register(ctx, nil, reg)
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "priya", user.Username)
	assert.Equal(t, models.RoleCustomer, user.Role)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)
	assert.True(t, user.IsActive)

	_, err = f.svc.Register(ctx, nil, customerReg("priya"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegister_Roles(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	staffReg := customerReg("mechanic1")
	staffReg.Role = "staff"

	_, err := f.svc.Register(ctx, nil, staffReg)
	assert.True(t, errors.Is(err, domain.ErrAuthorization))

	_, err = f.svc.Register(ctx, &clerk, staffReg)
	assert.True(t, errors.Is(err, domain.ErrAuthorization))

	user, err := f.svc.Register(ctx, &admin, staffReg)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, user.Role)

	adminReg := customerReg("boss")
	adminReg.Role = "admin"
	user, err = f.svc.Register(ctx, &admin, adminReg)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdministrator, user.Role)

	bad := customerReg("ghost")
	bad.Role = "superuser"
	_, err = f.svc.Register(ctx, &admin, bad)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestRegister_Validation(t *testing.T) {
	f := newUserFixture(t)

	tests := []struct {
		name   string
		mutate func(r *models.Registration)
	}{
		{"short username", func(r *models.Registration) { r.Username = "ab" }},
		{"username with spaces", func(r *models.Registration) { r.Username = "john smith" }},
		{"short password", func(r *models.Registration) { r.Password = "short" }},
		{"bad email", func(r *models.Registration) { r.Email = "not-an-email" }},
		{"display name email", func(r *models.Registration) { r.Email = "Priya <priya@example.com>" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := customerReg("valid.user")
			tt.mutate(&reg)
			_, err := f.svc.Register(context.Background(), nil, reg)
			assert.True(t, errors.Is(err, domain.ErrValidation))
		})
	}
}

func TestAuthenticateAndLogout(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	user, err := f.svc.Register(ctx, nil, customerReg("priya"))
	require.NoError(t, err)

	_, err = f.svc.Authenticate(ctx, "priya", "wrong-password")
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))
	_, err = f.svc.Authenticate(ctx, "nobody", "s3cret-pass")
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))

	session, err := f.svc.Authenticate(ctx, " PRIYA ", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, user.ID, session.User.ID)

	claims, err := f.tokens.Parse(session.Token)
	require.NoError(t, err)
	actor, err := claims.Actor()
	require.NoError(t, err)
	assert.Equal(t, user.ID, actor.UserID)
	assert.Equal(t, models.RoleCustomer, actor.Role)

	revoked, err := f.sessions.IsTokenRevoked(ctx, actor.TokenID)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, f.svc.Logout(ctx, actor, session.ExpiresAt))
	revoked, err = f.sessions.IsTokenRevoked(ctx, actor.TokenID)
	require.NoError(t, err)
	assert.True(t, revoked)

	err = f.svc.Logout(ctx, domain.Actor{UserID: user.ID}, session.ExpiresAt)
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))
}

func TestProfile(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	user, err := f.svc.Register(ctx, nil, customerReg("priya"))
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, nil, customerReg("kiran"))
	require.NoError(t, err)
	actor := domain.Actor{UserID: user.ID, Username: user.Username, Role: user.Role}

	name := " Priya N. "
	phone := "080 1234"
	updated, err := f.svc.UpdateProfile(ctx, actor, models.ProfileUpdate{FullName: &name, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Priya N.", updated.FullName)
	assert.Equal(t, "080 1234", updated.Phone)
	assert.Equal(t, "priya@example.com", updated.Email)

	profile, err := f.svc.GetProfile(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, "Priya N.", profile.FullName)

	taken := "kiran@example.com"
	_, err = f.svc.UpdateProfile(ctx, actor, models.ProfileUpdate{Email: &taken})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	bad := "nope"
	_, err = f.svc.UpdateProfile(ctx, actor, models.ProfileUpdate{Email: &bad})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = f.svc.GetProfile(ctx, domain.Actor{UserID: 999})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestEnsureAdmin(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	cfg := config.BootstrapConfig{AdminUsername: "root", AdminPassword: "changeme-now", AdminEmail: "root@example.com"}

	require.NoError(t, f.svc.EnsureAdmin(ctx, cfg))
	require.NoError(t, f.svc.EnsureAdmin(ctx, cfg), "second run is a no-op")

	session, err := f.svc.Authenticate(ctx, "root", "changeme-now")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdministrator, session.User.Role)

	require.NoError(t, f.svc.EnsureAdmin(ctx, config.BootstrapConfig{}))

	err = f.svc.EnsureAdmin(ctx, config.BootstrapConfig{AdminUsername: "weak", AdminPassword: "123"})
	assert.Error(t, err)
}
