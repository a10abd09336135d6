package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/group-task-api/internal/constants"
	"github.com/yukikurage/group-task-api/internal/dto"
	apierrors "github.com/yukikurage/group-task-api/internal/errors"
)

func TestAuthHandler_Register(t *testing.T) {
	env := setupHandlerTestEnv(t)

	response := env.register(t, "newuser")
	assert.Equal(t, "newuser", response.User.Username)
	assert.Equal(t, "newuser@example.com", response.User.Email)
	assert.Equal(t, "Bearer", response.TokenType)
	assert.NotEmpty(t, response.AccessToken)
	assert.NotEmpty(t, response.RefreshToken)

	w := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "another",
		"email":    "newuser@example.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apierrors.ErrCodeAlreadyExists, decodeError(t, w))

	w = env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "shortpw",
		"email":    "shortpw@example.com",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"username": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Login(t *testing.T) {
	env := setupHandlerTestEnv(t)
	env.register(t, "existing")

	w := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "existing@example.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var response dto.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "existing", response.User.Username)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies, "expected session cookie to be set")
	assert.Equal(t, constants.SessionCookieName, cookies[0].Name)

	w = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "existing@example.com",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apierrors.ErrCodeInvalidCredentials, decodeError(t, w))
}

func TestAuthHandler_RefreshFromBodyIsSingleUse(t *testing.T) {
	env := setupHandlerTestEnv(t)
	registered := env.register(t, "rotator")

	body := map[string]string{"refresh_token": registered.RefreshToken}
	w := env.do(t, http.MethodPost, "/api/auth/refresh", "", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rotated dto.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rotated))
	assert.NotEqual(t, registered.RefreshToken, rotated.RefreshToken)

	w = env.do(t, http.MethodPost, "/api/auth/refresh", "", body)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apierrors.ErrCodeTokenRevoked, decodeError(t, w))

	w = env.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": "made-up"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apierrors.ErrCodeTokenInvalid, decodeError(t, w))
}

func TestAuthHandler_RefreshFromSessionCookie(t *testing.T) {
	env := setupHandlerTestEnv(t)
	env.register(t, "cookie-user")

	w := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "cookie-user@example.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// without body or cookie there is nothing to refresh
	w = env.do(t, http.MethodPost, "/api/auth/refresh", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_LogoutRevokesRefreshToken(t *testing.T) {
	env := setupHandlerTestEnv(t)
	registered := env.register(t, "leaver")

	body := map[string]string{"refresh_token": registered.RefreshToken}
	w := env.do(t, http.MethodPost, "/api/auth/logout", "", body)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/auth/refresh", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_LogoutAll(t *testing.T) {
	env := setupHandlerTestEnv(t)
	registered := env.register(t, "everywhere")

	w := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "everywhere@example.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/auth/logout-all", registered.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Revoked int `json:"revoked"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 2, response.Revoked)

	w = env.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": registered.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/auth/logout-all", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_ForgotPasswordDoesNotRevealAccounts(t *testing.T) {
	env := setupHandlerTestEnv(t)
	env.register(t, "known")

	known := env.do(t, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "known@example.com"})
	unknown := env.do(t, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "ghost@example.com"})

	require.Equal(t, http.StatusOK, known.Code)
	require.Equal(t, http.StatusOK, unknown.Code)
	assert.JSONEq(t, known.Body.String(), unknown.Body.String())

	w := env.do(t, http.MethodPost, "/api/auth/reset-password", "", map[string]string{
		"token":        "not-a-real-token",
		"new_password": "anothersecret",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_GetCurrentUser(t *testing.T) {
	env := setupHandlerTestEnv(t)
	registered := env.register(t, "current-user")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	c.Set(constants.ContextKeyUserID, registered.User.ID)

	env.handlers.Auth.GetCurrentUser(c)

	require.Equal(t, http.StatusOK, w.Code)

	var response dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "current-user", response.Username)
	assert.Equal(t, "current-user@example.com", response.Email)
}

func TestRequireAuth_RejectsBadTokens(t *testing.T) {
	env := setupHandlerTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/auth/me", "not.a.jwt", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apierrors.ErrCodeTokenInvalid, decodeError(t, w))

	registered := env.register(t, "valid")
	w = env.do(t, http.MethodGet, "/api/auth/me", registered.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
