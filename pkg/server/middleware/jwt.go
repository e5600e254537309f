package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/auth"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/config"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/identity"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/logging"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/store"
)

var log = logging.New("middleware")

// TokenAuthenticator validates API tokens and puts the caller's identity
// on the request context.
type TokenAuthenticator struct {
	Issuer *auth.TokenIssuer
	Users  store.UsersStore
	Config *config.Config
}

// NewTokenAuthenticator creates a new token authenticator middleware
func NewTokenAuthenticator(issuer *auth.TokenIssuer, users store.UsersStore, cfg *config.Config) *TokenAuthenticator {
	return &TokenAuthenticator{Issuer: issuer, Users: users, Config: cfg}
}

// TokenFromHeader extracts the token from "Token <t>" or "Bearer <t>".
func TokenFromHeader(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return "", false
	}
	if !strings.EqualFold(scheme, "Token") && !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Token")
	writeDetail(w, http.StatusUnauthorized, detail)
}

func writeDetail(w http.ResponseWriter, code int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

// authenticate resolves the identity of r. A missing header yields a nil
// identity and no error.
func (a *TokenAuthenticator) authenticate(r *http.Request) (*identity.Identity, string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, "", nil
	}
	token, ok := TokenFromHeader(header)
	if !ok {
		return nil, "Invalid token header. No credentials provided.", auth.ErrInvalidToken
	}

	claims, err := a.Issuer.Parse(token)
	if err != nil {
		return nil, "Invalid token.", err
	}

	stored, err := a.Users.GetToken(claims.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "Invalid token.", auth.ErrInvalidToken
		}
		return nil, "", err
	}
	if stored.Expires.Before(time.Now()) {
		return nil, "Token has expired.", auth.ErrInvalidToken
	}

	id, err := identity.FromClaims(claims)
	if err != nil {
		return nil, "Invalid token.", err
	}
	user, err := a.Users.GetUser(id.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "User inactive or deleted.", auth.ErrInvalidToken
		}
		return nil, "", err
	}
	id.WithUser(user).WithToken(token).WithRemoteIP(ClientIP(r, a.Config))
	return id, "", nil
}

func (a *TokenAuthenticator) serve(w http.ResponseWriter, r *http.Request, next http.Handler, required bool) {
	id, detail, err := a.authenticate(r)
	if err != nil {
		if detail == "" {
			log.WithError(err).Error("token lookup failed")
			writeDetail(w, http.StatusInternalServerError, "Internal server error.")
			return
		}
		unauthorized(w, detail)
		return
	}
	if id == nil {
		if required {
			unauthorized(w, "Authentication credentials were not provided.")
			return
		}
		next.ServeHTTP(w, r)
		return
	}
	next.ServeHTTP(w, r.WithContext(identity.Set(r.Context(), id)))
}

// Middleware requires a valid token.
func (a *TokenAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.serve(w, r, next, true)
	})
}

// Optional authenticates the request when it carries a token and lets
// anonymous requests through. A bad token is still rejected.
func (a *TokenAuthenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.serve(w, r, next, false)
	})
}

// RequireStaff rejects callers that are not staff. It must run after the
// token middleware.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := identity.Get(r.Context())
		if !ok {
			unauthorized(w, "Authentication credentials were not provided.")
			return
		}
		if !id.Staff {
			writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
