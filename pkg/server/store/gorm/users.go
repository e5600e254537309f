package gorm

import (
	"gorm.io/gorm"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/model"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/store"
)

// Ensure UsersStore implements store.UsersStore
var _ store.UsersStore = (*UsersStore)(nil)

// UsersStore implements store.UsersStore using GORM
type UsersStore struct {
	db *gorm.DB
}

// NewUsersStore creates a new UsersStore
func NewUsersStore(db *gorm.DB) *UsersStore {
	return &UsersStore{db: db}
}

func (s *UsersStore) GetUser(id uint) (*model.User, error) {
	var u model.User
	if err := s.db.Where("id = ?", id).First(&u).Error; err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (s *UsersStore) FindUserByUsername(username string) (*model.User, error) {
	var u model.User
	if err := s.db.Where("username = ?", username).First(&u).Error; err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

// CreateUser inserts the user and its profile in one transaction.
func (s *UsersStore) CreateUser(u *model.User) error {
	return mapError(s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		return tx.Create(&model.UserProfile{Slug: model.Slugify(u.Username), UserID: u.ID}).Error
	}))
}

func (s *UsersStore) UpdateUser(u *model.User) error {
	return mapError(s.db.Save(u).Error)
}

func (s *UsersStore) CreateToken(t *model.AuthToken) error {
	return mapError(s.db.Create(t).Error)
}

func (s *UsersStore) GetToken(jti string) (*model.AuthToken, error) {
	var t model.AuthToken
	if err := s.db.Where("jti = ?", jti).First(&t).Error; err != nil {
		return nil, mapError(err)
	}
	return &t, nil
}

func (s *UsersStore) DeleteToken(jti string) error {
	return requireAffected(s.db.Where("jti = ?", jti).Delete(&model.AuthToken{}))
}

func (s *UsersStore) DeleteUserTokens(userID uint, keepJTI string) error {
	return mapError(s.db.Where("user_id = ? AND jti <> ?", userID, keepJTI).Delete(&model.AuthToken{}).Error)
}
