package endpoints

import (
	"errors"
	"net/http"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/audit"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/auth"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/config"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/identity"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/model"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/store"
)

// LoginRequest is the body of POST /auth/login/.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegistrationRequest is the body of POST /auth/registration/.
type RegistrationRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// PasswordChangeRequest is the body of POST /auth/password/change/.
type PasswordChangeRequest struct {
	OldPassword  string `json:"old_password"`
	NewPassword1 string `json:"new_password1"`
	NewPassword2 string `json:"new_password2"`
}

// TokenResponse carries a freshly issued API token.
type TokenResponse struct {
	Key string `json:"key"`
}

// UserResponse is the caller's account as returned by /auth/user/.
type UserResponse struct {
	model.User
	Credentials string `json:"credentials"`
}

// RegisterAuthEndpoints registers login, registration and the current
// user's account details.
func RegisterAuthEndpoints(s *server.Server) {
	users := s.UsersStore

	public := s.API.PathPrefix("/auth").Subrouter()
	public.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		out := links(r, "/auth/", "login", "logout", "user", "registration")
		out["password_change"] = absURL(r, "/auth/password/change/")
		out["credentials"] = absURL(r, "/auth/user/credentials/")
		respondWithJSON(w, http.StatusOK, out)
	}).Methods("GET")
	public.HandleFunc("/login/", handleLogin(users, s.Issuer, s.Config)).Methods("POST")
	public.HandleFunc("/registration/", handleRegistration(users, s.Issuer, s.Config)).Methods("POST")

	private := s.API.PathPrefix("/auth").Subrouter()
	private.Use(s.Auth.Middleware)
	private.HandleFunc("/logout/", handleLogout(users)).Methods("POST")
	private.HandleFunc("/user/", handleGetUser(users)).Methods("GET")
	private.HandleFunc("/user/", handleUpdateUser(users)).Methods("PUT", "PATCH")
	private.HandleFunc("/password/change/", handlePasswordChange(users)).Methods("POST")
}

// issueToken signs and records a token for u.
func issueToken(users store.UsersStore, issuer *auth.TokenIssuer, u *model.User) (string, error) {
	token, record, err := issuer.Issue(u)
	if err != nil {
		return "", err
	}
	if err := users.CreateToken(record); err != nil {
		return "", err
	}
	return token, nil
}

func handleLogin(users store.UsersStore, issuer *auth.TokenIssuer, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event := audit.LoginEvent{ClientIP: requestIP(r, cfg)}

		var req LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if err := requiredFields(map[string]string{"username": req.Username, "password": req.Password}); err != nil {
			writeError(w, r, err)
			return
		}
		event.User = req.Username

		u, err := users.FindUserByUsername(req.Username)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			writeError(w, r, err)
			return
		}
		if u == nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
			event.ErrorMessage = "invalid credentials"
			audit.Log(event)
			respondWithJSON(w, http.StatusBadRequest, map[string][]string{
				"non_field_errors": {"Unable to log in with provided credentials."},
			})
			return
		}

		token, err := issueToken(users, issuer, u)
		if err != nil {
			writeError(w, r, err)
			return
		}
		event.Success = true
		audit.Log(event)
		respondWithJSON(w, http.StatusOK, TokenResponse{Key: token})
	}
}

func handleRegistration(users store.UsersStore, issuer *auth.TokenIssuer, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegistrationRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		event := audit.RegistrationEvent{User: req.Username, ClientIP: requestIP(r, cfg)}

		errs := &model.ValidationError{}
		if err := requiredFields(map[string]string{"username": req.Username, "password1": req.Password1, "password2": req.Password2}); err != nil {
			errs = err.(*model.ValidationError)
		}
		if req.Password1 != "" {
			var pwErr *model.ValidationError
			if errors.As(auth.ValidatePassword("password1", req.Password1), &pwErr) {
				for field, msgs := range pwErr.Fields {
					for _, msg := range msgs {
						errs.Add(field, msg)
					}
				}
			}
		}
		if req.Password1 != "" && req.Password2 != "" && req.Password1 != req.Password2 {
			errs.Add("non_field_errors", "The two password fields didn't match.")
		}
		if err := errs.Err(); err != nil {
			writeError(w, r, err)
			return
		}

		hash, err := auth.HashPassword(req.Password1)
		if err != nil {
			writeError(w, r, err)
			return
		}
		u := &model.User{
			Username:     req.Username,
			Email:        req.Email,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			PasswordHash: hash,
		}
		if err := users.CreateUser(u); err != nil {
			event.ErrorMessage = err.Error()
			audit.Log(event)
			if errors.Is(err, store.ErrConflict) {
				err = fieldError("username", "A user with that username already exists.")
			}
			writeError(w, r, err)
			return
		}

		token, err := issueToken(users, issuer, u)
		if err != nil {
			writeError(w, r, err)
			return
		}
		event.Success = true
		audit.Log(event)
		respondWithJSON(w, http.StatusCreated, TokenResponse{Key: token})
	}
}

func handleLogout(users store.UsersStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := identity.Get(r.Context())
		if err := users.DeleteToken(id.TokenID); err != nil && !errors.Is(err, store.ErrNotFound) {
			writeError(w, r, err)
			return
		}
		audit.Log(audit.LogoutEvent{User: id.Username, ClientIP: remoteIP(id), TokenID: id.TokenID})
		respondWithError(w, http.StatusOK, "Successfully logged out.")
	}
}

func userResponse(r *http.Request, u *model.User) UserResponse {
	return UserResponse{User: *u, Credentials: absURL(r, "/auth/user/credentials/")}
}

func handleGetUser(users store.UsersStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := identity.Get(r.Context())
		u, err := users.GetUser(id.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, userResponse(r, u))
	}
}

// handleUpdateUser changes the caller's name and email. The username is
// fixed because it names the profile that owns stored credentials.
func handleUpdateUser(users store.UsersStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := identity.Get(r.Context())
		u, err := users.GetUser(id.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		var body struct {
			Email     *string `json:"email"`
			FirstName *string `json:"first_name"`
			LastName  *string `json:"last_name"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, r, err)
			return
		}
		if body.Email != nil {
			u.Email = *body.Email
		}
		if body.FirstName != nil {
			u.FirstName = *body.FirstName
		}
		if body.LastName != nil {
			u.LastName = *body.LastName
		}
		if err := users.UpdateUser(u); err != nil {
			writeError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, userResponse(r, u))
	}
}

// handlePasswordChange sets a new password and revokes every other token
// of the user.
func handlePasswordChange(users store.UsersStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := identity.Get(r.Context())
		event := audit.PasswordEvent{User: id.Username, ClientIP: remoteIP(id)}

		var req PasswordChangeRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if err := requiredFields(map[string]string{
			"old_password":  req.OldPassword,
			"new_password1": req.NewPassword1,
			"new_password2": req.NewPassword2,
		}); err != nil {
			writeError(w, r, err)
			return
		}

		u, err := users.GetUser(id.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !auth.CheckPassword(u.PasswordHash, req.OldPassword) {
			event.ErrorMessage = "old password mismatch"
			audit.Log(event)
			writeError(w, r, fieldError("old_password", "Your old password was entered incorrectly. Please enter it again."))
			return
		}
		if req.NewPassword1 != req.NewPassword2 {
			writeError(w, r, fieldError("new_password2", "The two password fields didn't match."))
			return
		}
		if err := auth.ValidatePassword("new_password2", req.NewPassword2); err != nil {
			writeError(w, r, err)
			return
		}

		hash, err := auth.HashPassword(req.NewPassword1)
		if err != nil {
			writeError(w, r, err)
			return
		}
		u.PasswordHash = hash
		if err := users.UpdateUser(u); err != nil {
			writeError(w, r, err)
			return
		}
		if err := users.DeleteUserTokens(u.ID, id.TokenID); err != nil {
			log.WithError(err).WithField("user", u.Username).Warn("failed to revoke other tokens")
		}
		event.Success = true
		audit.Log(event)
		respondWithError(w, http.StatusOK, "New password has been saved.")
	}
}
