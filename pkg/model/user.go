package model

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint      `gorm:"column:id;primaryKey" json:"pk"`
	Username     string    `gorm:"column:username;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"column:email" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	FirstName    string    `gorm:"column:first_name" json:"first_name"`
	LastName     string    `gorm:"column:last_name" json:"last_name"`
	IsStaff      bool      `gorm:"column:is_staff" json:"is_staff"`
	DateJoined   time.Time `gorm:"column:date_joined;autoCreateTime" json:"date_joined"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) Validate() error {
	v := &ValidationError{}
	checkRequired(v, "username", u.Username)
	checkMaxLength(v, "username", u.Username, 150)
	checkMaxLength(v, "email", u.Email, 254)
	return v.Err()
}

func (u *User) BeforeSave(tx *gorm.DB) error {
	return u.Validate()
}

// UserProfile owns stored cloud credentials. Its slug is derived from the
// username.
type UserProfile struct {
	Slug   string `gorm:"column:slug;primaryKey" json:"slug"`
	UserID uint   `gorm:"column:user_id;uniqueIndex;not null" json:"user"`
	User   *User  `gorm:"foreignKey:UserID" json:"-"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

// AuthToken records an issued API token by its JWT id so that logout can
// revoke it before it expires.
type AuthToken struct {
	JTI     string    `gorm:"column:jti;primaryKey"`
	UserID  uint      `gorm:"column:user_id;not null"`
	Created time.Time `gorm:"column:created;autoCreateTime"`
	Expires time.Time `gorm:"column:expires;not null"`
}

func (AuthToken) TableName() string {
	return "auth_tokens"
}

// IsExpired returns true if the token lifetime has passed
func (t *AuthToken) IsExpired() bool {
	return time.Now().After(t.Expires)
}
