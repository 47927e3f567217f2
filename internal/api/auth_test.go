package api

import (
	"errors"
	"net/http"
	"testing"

	"blangkis/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type userResponse struct {
	Message string      `json:"message"`
	User    domain.User `json:"user"`
	Error   string      `json:"error"`
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/auth/register", "", gin.H{"username": "Dewi", "email": " Dewi@Mail.com ", "password": "rahasia1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	registered := decode[userResponse](t, w).User
	assert.Equal(t, "dewi@mail.com", registered.Email)
	assert.Equal(t, domain.RoleKonsumen, registered.Role)
	assert.NotContains(t, w.Body.String(), "rahasia1")

	var stored domain.User
	require.NoError(t, env.db.First(&stored, registered.ID).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("rahasia1")))

	w = env.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "dewi@mail.com", "password": "rahasia1"})
	require.Equal(t, http.StatusOK, w.Code)
	auth := decode[AuthResponse](t, w)
	require.NotEmpty(t, auth.Token)

	w = env.do(http.MethodGet, "/api/auth/profile", auth.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, registered.ID, decode[userResponse](t, w).User.ID)

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "dewi@mail.com", "password": "salah123"}).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "tidakada@mail.com", "password": "rahasia1"}).Code)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/auth/register", "", gin.H{"username": "Sari", "email": "SARI@mail.com", "password": "rahasia1"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email sudah terdaftar", decode[userResponse](t, w).Error)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/api/auth/register", "", gin.H{"username": "x", "email": "bukan-email", "password": "rahasia1"}).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/api/auth/register", "", gin.H{"username": "x", "email": "x@mail.com", "password": "123"}).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/api/auth/register", "", gin.H{"email": "x@mail.com"}).Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/auth/profile", env.customerToken, nil).Code)
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/auth/logout", env.customerToken, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/auth/profile", env.customerToken, nil).Code)

	// A fresh token for the same user still works
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/auth/profile", env.token(env.customer), nil).Code)
}

func TestProtectedRoutesRejectBadTokens(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/auth/profile", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/auth/profile", "bukan.token.jwt", nil).Code)

	// Token of a user that no longer exists
	ghost := env.createUser("hantu", "hantu@mail.com", domain.RoleKonsumen)
	token := env.token(ghost)
	require.NoError(t, env.db.Delete(&domain.User{}, ghost.ID).Error)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/auth/profile", token, nil).Code)
}

func TestGoogleLogin(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/auth/google", "", gin.H{"email": "rina@gmail.com", "name": "Rina", "googleId": "g-1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decode[AuthResponse](t, w)
	assert.Equal(t, "Rina", first.User.Username)
	assert.Equal(t, domain.RoleKonsumen, first.User.Role)

	// Same Google account signs in to the same user
	w = env.do(http.MethodPost, "/api/auth/google", "", gin.H{"email": "rina@gmail.com", "googleId": "g-1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, first.User.ID, decode[AuthResponse](t, w).User.ID)

	// An existing email account gets linked
	w = env.do(http.MethodPost, "/api/auth/google", "", gin.H{"email": "sari@mail.com", "googleId": "g-2"})
	require.Equal(t, http.StatusOK, w.Code)
	linked := decode[AuthResponse](t, w).User
	assert.Equal(t, env.customer.ID, linked.ID)
	require.NotNil(t, linked.GoogleID)
	assert.Equal(t, "g-2", *linked.GoogleID)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPut, "/api/auth/profile", env.customerToken, gin.H{"username": "Sari Dewi"})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[userResponse](t, w).User
	assert.Equal(t, "Sari Dewi", updated.Username)
	assert.Equal(t, "sari@mail.com", updated.Email)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPut, "/api/auth/profile", env.customerToken, gin.H{"email": "admin@blangkis.id"}).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPut, "/api/auth/profile", env.customerToken, gin.H{"password": "123"}).Code)

	require.Equal(t, http.StatusOK, env.do(http.MethodPut, "/api/auth/profile", env.customerToken, gin.H{"password": "baru12345"}).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "sari@mail.com", "password": "baru12345"}).Code)
}

func TestUpdateProfileEmailLookupFailureIsServerError(t *testing.T) {
	env := newTestEnv(t)

	// Fail only the duplicate-email count on users
	broken := false
	require.NoError(t, env.db.Callback().Query().Before("gorm:query").Register("test:broken_count", func(tx *gorm.DB) {
		if _, counting := tx.Statement.Dest.(*int64); broken && counting && tx.Statement.Schema != nil && tx.Statement.Schema.Table == "users" {
			tx.AddError(errors.New("koneksi terputus"))
		}
	}))
	broken = true

	w := env.do(http.MethodPut, "/api/auth/profile", env.customerToken, gin.H{"email": "baru@mail.com"})
	assert.Equal(t, http.StatusInternalServerError, w.Code, w.Body.String())
	assert.NotEqual(t, "Email sudah terdaftar", decode[userResponse](t, w).Error)

	broken = false
	var stored domain.User
	require.NoError(t, env.db.First(&stored, env.customer.ID).Error)
	assert.Equal(t, "sari@mail.com", stored.Email)
}

func TestNewAccountsDropCachedUserList(t *testing.T) {
	env := newTestEnv(t)

	type listResponse struct {
		Total  int64 `json:"total"`
		Cached bool  `json:"cached"`
	}
	list := func() listResponse {
		w := env.do(http.MethodGet, "/api/users", env.adminToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		return decode[listResponse](t, w)
	}

	list()
	require.True(t, list().Cached)
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/auth/register", "", gin.H{"username": "Dewi", "email": "dewi@mail.com", "password": "rahasia1"}).Code)
	afterRegister := list()
	assert.False(t, afterRegister.Cached)
	assert.EqualValues(t, 3, afterRegister.Total)

	require.True(t, list().Cached)
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/auth/google", "", gin.H{"email": "rina@gmail.com", "name": "Rina", "googleId": "g-1"}).Code)
	afterGoogle := list()
	assert.False(t, afterGoogle.Cached)
	assert.EqualValues(t, 4, afterGoogle.Total)
}
