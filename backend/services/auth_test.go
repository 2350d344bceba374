package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursemarket/backend/models"
)

func register(t *testing.T, f *fixture, email string) *TokenPair {
	t.Helper()
	pair, err := f.svc.Auth.Register(f.ctx, RegisterInput{
		Email:    email,
		Username: "learner",
		Password: "password123",
	})
	require.NoError(t, err)
	return pair
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	pair := register(t, f, "Learner@Example.com")

	assert.Equal(t, models.RoleStudent, pair.User.Role)
	assert.Equal(t, "learner@example.com", pair.User.Email)
	assert.NotEmpty(t, pair.AccessToken)
	assert.Equal(t, "bearer", pair.TokenType)

	_, err := f.svc.Auth.Register(f.ctx, RegisterInput{Email: "learner@example.com", Username: "other", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = f.svc.Auth.Login(f.ctx, LoginInput{Email: "learner@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = f.svc.Auth.Login(f.ctx, LoginInput{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	logged, err := f.svc.Auth.Login(f.ctx, LoginInput{Email: "learner@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.NotNil(t, logged.User.LastLogin)

	user, err := f.svc.Auth.Authenticate(f.ctx, logged.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, pair.User.ID, user.ID)

	_, err = f.svc.Auth.Authenticate(f.ctx, logged.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRegisterRejectsAdmin(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Auth.Register(f.ctx, RegisterInput{Email: "root@example.com", Username: "root", Password: "password123", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestRefreshRotation(t *testing.T) {
	f := newFixture(t)
	first := register(t, f, "learner@example.com")

	second, err := f.svc.Auth.Refresh(f.ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = f.svc.Auth.Refresh(f.ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthenticated, "a rotated token is revoked")

	require.NoError(t, f.svc.Auth.Logout(f.ctx, second.User))
	_, err = f.svc.Auth.Refresh(f.ctx, second.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.svc.Auth.Refresh(f.ctx, second.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestInactiveUsers(t *testing.T) {
	f := newFixture(t)
	pair := register(t, f, "learner@example.com")

	_, err := f.svc.Admin.SetActive(f.ctx, f.admin, pair.User.ID, false)
	require.NoError(t, err)

	_, err = f.svc.Auth.Login(f.ctx, LoginInput{Email: "learner@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Auth.Authenticate(f.ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Auth.Refresh(f.ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	pair := register(t, f, "learner@example.com")
	user, err := f.svc.Auth.Authenticate(f.ctx, pair.AccessToken)
	require.NoError(t, err)

	err = f.svc.Users.ChangePassword(f.ctx, user, PasswordChange{CurrentPassword: "nope", NewPassword: "password456"})
	assert.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, f.svc.Users.ChangePassword(f.ctx, user, PasswordChange{CurrentPassword: "password123", NewPassword: "password456"}))
	_, err = f.svc.Auth.Refresh(f.ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.svc.Auth.Login(f.ctx, LoginInput{Email: "learner@example.com", Password: "password456"})
	assert.NoError(t, err)
}
