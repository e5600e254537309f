package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/auth"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/config"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/identity"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/model"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/store"
)

type mockUsersStore struct {
	mock.Mock
}

func (m *mockUsersStore) GetUser(id uint) (*model.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUsersStore) FindUserByUsername(username string) (*model.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUsersStore) CreateUser(u *model.User) error           { return m.Called(u).Error(0) }
func (m *mockUsersStore) UpdateUser(u *model.User) error           { return m.Called(u).Error(0) }
func (m *mockUsersStore) CreateToken(t *model.AuthToken) error     { return m.Called(t).Error(0) }
func (m *mockUsersStore) DeleteToken(jti string) error             { return m.Called(jti).Error(0) }
func (m *mockUsersStore) DeleteUserTokens(id uint, k string) error { return m.Called(id, k).Error(0) }

func (m *mockUsersStore) GetToken(jti string) (*model.AuthToken, error) {
	args := m.Called(jti)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthToken), args.Error(1)
}

var _ store.UsersStore = (*mockUsersStore)(nil)

func testIssuer() *auth.TokenIssuer {
	return auth.NewTokenIssuer([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
}

func identityHandler(t *testing.T, seen **identity.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := identity.Get(r.Context())
		*seen = id
		w.WriteHeader(http.StatusOK)
	})
}

func TestTokenFromHeader(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Token abc", "abc", true},
		{"token abc", "abc", true},
		{"Bearer abc", "abc", true},
		{"Basic abc", "", false},
		{"Token", "", false},
		{"Token   ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		token, ok := TokenFromHeader(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.token, token, tt.header)
	}
}

func TestMiddleware_ValidToken(t *testing.T) {
	issuer := testIssuer()
	user := &model.User{ID: 4, Username: "alice", IsStaff: false}
	token, record, err := issuer.Issue(user)
	require.NoError(t, err)

	users := &mockUsersStore{}
	users.On("GetToken", record.JTI).Return(record, nil)
	// staff granted after the token was issued
	users.On("GetUser", uint(4)).Return(&model.User{ID: 4, Username: "alice", IsStaff: true}, nil)

	var seen *identity.Identity
	h := NewTokenAuthenticator(issuer, users, &config.Config{}).Middleware(identityHandler(t, &seen))

	req := httptest.NewRequest("GET", "/api/v1/deployments/", nil)
	req.Header.Set("Authorization", "Token "+token)
	req.RemoteAddr = "192.0.2.10:5555"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, seen)
	assert.Equal(t, uint(4), seen.UserID)
	assert.Equal(t, "alice", seen.Username)
	assert.True(t, seen.Staff)
	assert.Equal(t, record.JTI, seen.TokenID)
	assert.Equal(t, token, seen.Token)
	assert.Equal(t, "192.0.2.10", seen.RemoteIP.String())
	users.AssertExpectations(t)
}

func TestMiddleware_Rejections(t *testing.T) {
	issuer := testIssuer()
	user := &model.User{ID: 4, Username: "alice"}
	token, record, err := issuer.Issue(user)
	require.NoError(t, err)

	other := auth.NewTokenIssuer([]byte("another-secret-another-secret-xx"), time.Hour)
	forged, _, err := other.Issue(user)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		setup  func(users *mockUsersStore)
		code   int
		detail string
	}{
		{
			name:   "missing header",
			code:   http.StatusUnauthorized,
			detail: "Authentication credentials were not provided.",
		},
		{
			name:   "malformed header",
			header: "Basic Zm9vOmJhcg==",
			code:   http.StatusUnauthorized,
			detail: "Invalid token header. No credentials provided.",
		},
		{
			name:   "bad signature",
			header: "Token " + forged,
			code:   http.StatusUnauthorized,
			detail: "Invalid token.",
		},
		{
			name:   "revoked",
			header: "Bearer " + token,
			setup: func(users *mockUsersStore) {
				users.On("GetToken", record.JTI).Return(nil, store.ErrNotFound)
			},
			code:   http.StatusUnauthorized,
			detail: "Invalid token.",
		},
		{
			name:   "expired record",
			header: "Token " + token,
			setup: func(users *mockUsersStore) {
				expired := *record
				expired.Expires = time.Now().Add(-time.Minute)
				users.On("GetToken", record.JTI).Return(&expired, nil)
			},
			code:   http.StatusUnauthorized,
			detail: "Token has expired.",
		},
		{
			name:   "deleted user",
			header: "Token " + token,
			setup: func(users *mockUsersStore) {
				users.On("GetToken", record.JTI).Return(record, nil)
				users.On("GetUser", uint(4)).Return(nil, store.ErrNotFound)
			},
			code:   http.StatusUnauthorized,
			detail: "User inactive or deleted.",
		},
		{
			name:   "store failure",
			header: "Token " + token,
			setup: func(users *mockUsersStore) {
				users.On("GetToken", record.JTI).Return(nil, errors.New("connection reset"))
			},
			code:   http.StatusInternalServerError,
			detail: "Internal server error.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &mockUsersStore{}
			if tt.setup != nil {
				tt.setup(users)
			}
			var seen *identity.Identity
			h := NewTokenAuthenticator(issuer, users, nil).Middleware(identityHandler(t, &seen))

			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
			assert.Nil(t, seen)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.detail, body["detail"])
			if tt.code == http.StatusUnauthorized {
				assert.Equal(t, "Token", w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestOptional_Anonymous(t *testing.T) {
	var seen *identity.Identity
	called := false
	h := NewTokenAuthenticator(testIssuer(), &mockUsersStore{}, nil).Optional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		seen, _ = identity.Get(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/applications/", nil))
	assert.True(t, called)
	assert.Nil(t, seen)

	called = false
	req := httptest.NewRequest("GET", "/api/v1/applications/", nil)
	req.Header.Set("Authorization", "Token garbage")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireStaff(t *testing.T) {
	h := RequireStaff(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest("POST", "/", nil)
	req = req.WithContext(identity.Set(req.Context(), &identity.Identity{UserID: 1, Username: "bob"}))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest("POST", "/", nil)
	req = req.WithContext(identity.Set(req.Context(), &identity.Identity{UserID: 1, Username: "root", Staff: true}))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
