package server

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSignup(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":     "taro@example.com",
		"user_name": "taro",
		"password":  "correct-horse",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		User  map[string]string `json:"user"`
		Token string            `json:"token"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, "taro@example.com", resp.User["email"])
	assert.NotEmpty(t, resp.Token)

	// Session cookie issued.
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, sessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	// Password stored hashed, not in the clear.
	user, err := f.storage.users.GetUserByEmail(context.Background(), "taro@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct-horse")))
}

func TestSignupValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing email", map[string]string{"user_name": "taro", "password": "correct-horse"}},
		{"bad email", map[string]string{"email": "not-an-email", "user_name": "taro", "password": "correct-horse"}},
		{"missing user_name", map[string]string{"email": "taro@example.com", "password": "correct-horse"}},
		{"short password", map[string]string{"email": "taro@example.com", "user_name": "taro", "password": "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.request(t, http.MethodPost, "/api/auth/signup", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "user-1", "taro@example.com", "correct-horse")

	rec := f.request(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":     "taro@example.com",
		"user_name": "taro",
		"password":  "correct-horse",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "user-1", "taro@example.com", "correct-horse")

	rec := f.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "taro@example.com",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	decodeBody(t, rec, &resp)
	assert.NotEmpty(t, resp.Token)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "user-1", "taro@example.com", "correct-horse")

	// Wrong password and unknown email look identical to the caller.
	rec := f.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "taro@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "correct-horse",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	f := newFixture(t)
	token := f.seedUser(t, "user-1", "taro@example.com", "correct-horse")

	rec := f.request(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, sessionCookieName, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestProtectedEndpointRequiresSession(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/api/jquants/search", "", map[string]string{"keyword": "toyota"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInvalidSessionTokenRejected(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/api/jquants/search", "not-a-jwt", map[string]string{"keyword": "toyota"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerHeaderAccepted(t *testing.T) {
	f := newFixture(t)
	token := f.seedUser(t, "user-1", "taro@example.com", "correct-horse")

	req := f.request(t, http.MethodGet, "/api/favorites", "", nil)
	assert.Equal(t, http.StatusUnauthorized, req.Code)

	rec := f.requestWithBearer(t, http.MethodGet, "/api/favorites", token)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestUserRename(t *testing.T) {
	f := newFixture(t)
	token := f.seedUser(t, "user-1", "taro@example.com", "correct-horse")

	rec := f.request(t, http.MethodPatch, "/api/users", token, map[string]string{"user_name": "taro-renamed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	user, err := f.storage.users.GetUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "taro-renamed", user.UserName)
}

func TestUserDeleteRemovesAllData(t *testing.T) {
	f := newFixture(t)
	token := f.seedUser(t, "user-1", "taro@example.com", "correct-horse")
	seedCredential(t, f, "user-1")

	rec := f.request(t, http.MethodDelete, "/api/users", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	_, err := f.storage.users.GetUser(context.Background(), "user-1")
	assert.Error(t, err)
	_, err = f.storage.creds.Get(context.Background(), "user-1")
	assert.Error(t, err)
}
