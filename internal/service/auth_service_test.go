package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lesprivat/les-api/internal/models"
	appErrors "github.com/lesprivat/les-api/pkg/errors"
)

type authUserStub struct {
	user *models.User
}

func (s authUserStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.user == nil {
		return nil, sql.ErrNoRows
	}
	return s.user, nil
}

func authTestUser(t *testing.T, password string, active bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "user-1",
		Email:        "tutor@example.com",
		PasswordHash: string(hash),
		FullName:     "Tutor One",
		Role:         models.RoleTutor,
		Active:       active,
	}
}

func TestLoginIssuesToken(t *testing.T) {
	user := authTestUser(t, "secret123", true)
	svc := NewAuthService(authUserStub{user: user}, nil, nil, AuthConfig{Secret: "test-secret", Expiration: time.Hour})

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "tutor@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "user-1", resp.User.ID)
	assert.Equal(t, models.RoleTutor, resp.User.Role)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleTutor, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	user := authTestUser(t, "secret123", true)
	svc := NewAuthService(authUserStub{user: user}, nil, nil, AuthConfig{Secret: "test-secret"})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "tutor@example.com", Password: "wrong"})
	require.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	svc := NewAuthService(authUserStub{}, nil, nil, AuthConfig{Secret: "test-secret"})
	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.com", Password: "whatever"})
	require.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestLoginInactiveAccount(t *testing.T) {
	user := authTestUser(t, "secret123", false)
	svc := NewAuthService(authUserStub{user: user}, nil, nil, AuthConfig{Secret: "test-secret"})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "tutor@example.com", Password: "secret123"})
	require.ErrorIs(t, err, appErrors.ErrInactiveAccount)
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	user := authTestUser(t, "secret123", true)
	issuer := NewAuthService(authUserStub{user: user}, nil, nil, AuthConfig{Secret: "secret-a", Expiration: time.Hour})
	verifier := NewAuthService(authUserStub{user: user}, nil, nil, AuthConfig{Secret: "secret-b"})

	resp, err := issuer.Login(context.Background(), models.LoginRequest{Email: "tutor@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(resp.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
