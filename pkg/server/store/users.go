package store

import "github.com/cloudlaunch/cloudlaunch-go/pkg/model"

// UsersStore manages accounts and issued API tokens.
type UsersStore interface {
	GetUser(id uint) (*model.User, error)
	FindUserByUsername(username string) (*model.User, error)
	// CreateUser inserts the user together with its profile.
	CreateUser(u *model.User) error
	UpdateUser(u *model.User) error

	CreateToken(t *model.AuthToken) error
	// GetToken returns ErrNotFound for unknown or revoked tokens.
	GetToken(jti string) (*model.AuthToken, error)
	DeleteToken(jti string) error
	// DeleteUserTokens revokes every token of a user except keepJTI.
	DeleteUserTokens(userID uint, keepJTI string) error
}
