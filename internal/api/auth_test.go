package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transcripto-backend/internal/auth"
	pkgapi "transcripto-backend/pkg/api"
)

func TestSignupAndLogin(t *testing.T) {
	env := newTestEnv(t)

	signupResp := env.signup(t, "user@test.com", "password123")
	assert.NotEmpty(t, signupResp.Token)
	assert.Equal(t, "user@test.com", signupResp.User.Email)
	assert.False(t, signupResp.User.IsAdmin)

	// Duplicate signup is rejected.
	rec := env.request(t, http.MethodPost, "/auth/signup", pkgapi.SignupRequest{
		Email:    "user@test.com",
		Password: "password123",
	}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.request(t, http.MethodPost, "/auth/login", pkgapi.LoginRequest{
		Email:    "user@test.com",
		Password: "password123",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.request(t, http.MethodPost, "/auth/login", pkgapi.LoginRequest{
		Email:    "user@test.com",
		Password: "wrong-password",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignupValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/auth/signup", pkgapi.SignupRequest{
		Email:    "not-an-email",
		Password: "password123",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.request(t, http.MethodPost, "/auth/signup", pkgapi.SignupRequest{
		Email:    "short@test.com",
		Password: "short",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAndUpdateUser(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "user@test.com", "password123").Token

	rec := env.request(t, http.MethodGet, "/auth/user", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	user := decodeResponse[pkgapi.User](t, rec)
	assert.Equal(t, "Test User", user.FullName)

	newName := "Renamed User"
	newPassword := "new-password-123"
	rec = env.request(t, http.MethodPut, "/auth/user", pkgapi.UpdateUserRequest{
		FullName: &newName,
		Password: &newPassword,
	}, token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.request(t, http.MethodPost, "/auth/login", pkgapi.LoginRequest{
		Email:    "user@test.com",
		Password: newPassword,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Renamed User", decodeResponse[pkgapi.AuthResponse](t, rec).User.FullName)
}

func TestAdminLoginRequiresAdminAccount(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "user@test.com", "password123")

	rec := env.request(t, http.MethodPost, "/auth/admin/login", pkgapi.LoginRequest{
		Email:    "user@test.com",
		Password: "password123",
	}, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminRoutesRejectNonAdminToken(t *testing.T) {
	env := newTestEnv(t)
	userToken := env.signup(t, "user@test.com", "password123").Token

	rec := env.request(t, http.MethodGet, "/admin/stats", nil, userToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.request(t, http.MethodGet, "/admin/stats", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	adminToken := env.createAdmin(t, "admin@test.com", "admin-password").Token
	rec = env.request(t, http.MethodGet, "/admin/stats", nil, adminToken)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExpiredTokenRejected(t *testing.T) {
	env := newTestEnv(t)
	user := env.signup(t, "user@test.com", "password123").User

	expired, err := auth.CreateToken(testJWTSecret, user.Id, user.Email, false, -time.Minute)
	require.NoError(t, err)

	rec := env.request(t, http.MethodGet, "/auth/user", nil, expired)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
