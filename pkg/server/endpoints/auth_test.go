package endpoints

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/auth"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/model"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/store"
)

func userWithPassword(t *testing.T, password string) *model.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	u := *alice
	u.PasswordHash = hash
	return &u
}

func TestAuthRoot(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("GET", "/api/v1/auth/", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	decodeBody(t, w, &body)
	assert.Equal(t, "http://example.com/api/v1/auth/login/", body["login"])
	assert.Equal(t, "http://example.com/api/v1/auth/password/change/", body["password_change"])
	assert.Equal(t, "http://example.com/api/v1/auth/user/credentials/", body["credentials"])
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	u := userWithPassword(t, "correct horse")
	env.users.On("FindUserByUsername", "alice").Return(u, nil)
	env.users.On("FindUserByUsername", "bob").Return(nil, store.ErrNotFound)
	env.users.On("CreateToken", mock.MatchedBy(func(tok *model.AuthToken) bool {
		return tok.UserID == u.ID && tok.JTI != ""
	})).Return(nil)

	w := env.do("POST", "/api/v1/auth/login/", LoginRequest{Username: "alice", Password: "correct horse"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp TokenResponse
	decodeBody(t, w, &resp)
	claims, err := env.issuer.Parse(resp.Key)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)

	failures := []LoginRequest{
		{Username: "alice", Password: "wrong"},
		{Username: "bob", Password: "correct horse"},
	}
	for _, req := range failures {
		w = env.do("POST", "/api/v1/auth/login/", req, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"non_field_errors":["Unable to log in with provided credentials."]}`, w.Body.String())
	}

	w = env.do("POST", "/api/v1/auth/login/", LoginRequest{Username: "alice"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"password":["This field is required."]}`, w.Body.String())

	env.users.AssertNumberOfCalls(t, "CreateToken", 1)
}

func TestRegistration(t *testing.T) {
	env := newTestEnv(t)
	env.users.On("CreateUser", mock.MatchedBy(func(u *model.User) bool {
		return u.Username == "carol" && u.PasswordHash != "" && !u.IsStaff
	})).Run(func(args mock.Arguments) {
		args.Get(0).(*model.User).ID = 5
	}).Return(nil)
	env.users.On("CreateToken", mock.Anything).Return(nil)

	w := env.do("POST", "/api/v1/auth/registration/", RegistrationRequest{
		Username:  "carol",
		Email:     "carol@example.org",
		Password1: "s3cure-passw0rd",
		Password2: "s3cure-passw0rd",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp TokenResponse
	decodeBody(t, w, &resp)
	claims, err := env.issuer.Parse(resp.Key)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(5), id)
}

func TestRegistrationValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   RegistrationRequest
		field string
	}{
		{"mismatch", RegistrationRequest{Username: "carol", Password1: "s3cure-passw0rd", Password2: "other-passw0rd"}, "non_field_errors"},
		{"too short", RegistrationRequest{Username: "carol", Password1: "short", Password2: "short"}, "password1"},
		{"numeric", RegistrationRequest{Username: "carol", Password1: "1234567890", Password2: "1234567890"}, "password1"},
		{"no username", RegistrationRequest{Password1: "s3cure-passw0rd", Password2: "s3cure-passw0rd"}, "username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			w := env.do("POST", "/api/v1/auth/registration/", tt.req, "")
			require.Equal(t, http.StatusBadRequest, w.Code)

			var fields map[string][]string
			decodeBody(t, w, &fields)
			assert.Contains(t, fields, tt.field)
			env.users.AssertNotCalled(t, "CreateUser", mock.Anything)
		})
	}

	t.Run("taken username", func(t *testing.T) {
		env := newTestEnv(t)
		env.users.On("CreateUser", mock.Anything).Return(store.ErrConflict)
		w := env.do("POST", "/api/v1/auth/registration/", RegistrationRequest{
			Username: "alice", Password1: "s3cure-passw0rd", Password2: "s3cure-passw0rd",
		}, "")
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"username":["A user with that username already exists."]}`, w.Body.String())
	})
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, alice)
	env.users.On("DeleteToken", mock.AnythingOfType("string")).Return(nil)

	w := env.do("POST", "/api/v1/auth/logout/", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"detail":"Successfully logged out."}`, w.Body.String())
	env.users.AssertNumberOfCalls(t, "DeleteToken", 1)

	w = env.do("POST", "/api/v1/auth/logout/", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCurrentUser(t *testing.T) {
	env := newTestEnv(t)
	u := *alice
	token := env.login(t, &u)
	env.users.On("UpdateUser", mock.MatchedBy(func(u *model.User) bool {
		return u.Username == "alice" && u.FirstName == "Alice" && u.Email == "alice@example.org"
	})).Return(nil)

	w := env.do("GET", "/api/v1/auth/user/", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"username":"alice"`)
	assert.Contains(t, w.Body.String(), `"credentials":"http://example.com/api/v1/auth/user/credentials/"`)
	assert.NotContains(t, w.Body.String(), "password")

	w = env.do("PATCH", "/api/v1/auth/user/", map[string]string{"first_name": "Alice", "username": "mallory"}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"first_name":"Alice"`)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)
}

func TestPasswordChange(t *testing.T) {
	env := newTestEnv(t)
	u := userWithPassword(t, "correct horse")
	token := env.login(t, u)
	env.users.On("UpdateUser", mock.MatchedBy(func(changed *model.User) bool {
		return auth.CheckPassword(changed.PasswordHash, "battery staple")
	})).Return(nil)
	env.users.On("DeleteUserTokens", u.ID, mock.AnythingOfType("string")).Return(nil)

	w := env.do("POST", "/api/v1/auth/password/change/", PasswordChangeRequest{
		OldPassword: "wrong", NewPassword1: "battery staple", NewPassword2: "battery staple",
	}, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "old_password")

	w = env.do("POST", "/api/v1/auth/password/change/", PasswordChangeRequest{
		OldPassword: "correct horse", NewPassword1: "battery staple", NewPassword2: "battery stapler",
	}, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "new_password2")

	w = env.do("POST", "/api/v1/auth/password/change/", PasswordChangeRequest{
		OldPassword: "correct horse", NewPassword1: "battery staple", NewPassword2: "battery staple",
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"detail":"New password has been saved."}`, w.Body.String())
	env.users.AssertExpectations(t)
}
