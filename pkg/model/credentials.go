package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/encryption"
)

// Credentials are a user's stored keys for one cloud. AWS rows use
// AccessKey/SecretKey and OpenStack rows the Username/Password group.
// SecretKey and Password are sealed in the database and opened on load.
type Credentials struct {
	ID              uint      `gorm:"column:id;primaryKey" json:"id"`
	Name            string    `gorm:"column:name;not null" json:"name"`
	Kind            CloudKind `gorm:"column:kind;not null" json:"-"`
	Default         bool      `gorm:"column:is_default" json:"default"`
	CloudSlug       string    `gorm:"column:cloud_slug;not null" json:"cloud"`
	UserProfileSlug string    `gorm:"column:user_profile_slug;not null" json:"-"`
	Added           time.Time `gorm:"column:added;autoCreateTime" json:"added"`
	Updated         time.Time `gorm:"column:updated;autoUpdateTime" json:"updated"`

	AccessKey string `gorm:"column:access_key" json:"access_key,omitempty"`
	SecretKey string `gorm:"column:secret_key" json:"secret_key,omitempty"`

	Username           string `gorm:"column:username" json:"username,omitempty"`
	Password           string `gorm:"column:password" json:"password,omitempty"`
	TenantName         string `gorm:"column:tenant_name" json:"tenant_name,omitempty"`
	ProjectName        string `gorm:"column:project_name" json:"project_name,omitempty"`
	ProjectDomainName  string `gorm:"column:project_domain_name" json:"project_domain_name,omitempty"`
	UserDomainName     string `gorm:"column:user_domain_name" json:"user_domain_name,omitempty"`
	IdentityAPIVersion string `gorm:"column:identity_api_version" json:"identity_api_version,omitempty"`
}

func (Credentials) TableName() string {
	return "credentials"
}

// aad binds sealed secrets to the owner, kind and cloud of the row, so a
// ciphertext copied onto another user's or another cloud's row fails to open.
func (c *Credentials) aad() string {
	return fmt.Sprintf("credentials/%s/%s/%s", c.UserProfileSlug, c.Kind, c.CloudSlug)
}

func (c *Credentials) Validate() error {
	v := &ValidationError{}
	checkRequired(v, "name", c.Name)
	checkMaxLength(v, "name", c.Name, 60)
	checkRequired(v, "cloud", c.CloudSlug)
	switch c.Kind {
	case CloudKindAWS:
		checkRequired(v, "access_key", c.AccessKey)
		checkRequired(v, "secret_key", c.SecretKey)
	case CloudKindOpenStack:
		checkRequired(v, "username", c.Username)
		checkRequired(v, "password", c.Password)
	case CloudKindDummy:
	default:
		v.Add("kind", "Unsupported credentials type.")
	}
	return v.Err()
}

func (c *Credentials) BeforeSave(tx *gorm.DB) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return c.seal(tx)
}

func (c *Credentials) AfterSave(tx *gorm.DB) error {
	return c.open(tx)
}

func (c *Credentials) AfterFind(tx *gorm.DB) error {
	return c.open(tx)
}

func (c *Credentials) seal(tx *gorm.DB) error {
	cipher, err := cipherForDB(tx)
	if err != nil {
		return err
	}
	if c.SecretKey, err = encryption.EncryptString(cipher, c.aad(), c.SecretKey); err != nil {
		return fmt.Errorf("credentials encryption failed for id=%d: %w", c.ID, err)
	}
	if c.Password, err = encryption.EncryptString(cipher, c.aad(), c.Password); err != nil {
		return fmt.Errorf("credentials encryption failed for id=%d: %w", c.ID, err)
	}
	return nil
}

func (c *Credentials) open(tx *gorm.DB) error {
	cipher, err := cipherForDB(tx)
	if err != nil {
		return err
	}
	if c.SecretKey, err = encryption.DecryptString(cipher, c.aad(), c.SecretKey); err != nil {
		return fmt.Errorf("credentials decryption failed for id=%d", c.ID)
	}
	if c.Password, err = encryption.DecryptString(cipher, c.aad(), c.Password); err != nil {
		return fmt.Errorf("credentials decryption failed for id=%d", c.ID)
	}
	return nil
}

// CloudCredentials converts the row into the provider credentials form.
// Optional OpenStack fields are only carried when set.
func (c *Credentials) CloudCredentials() cloud.Credentials {
	switch c.Kind {
	case CloudKindAWS:
		return cloud.Credentials{AWSAccessKey: c.AccessKey, AWSSecretKey: c.SecretKey}
	case CloudKindOpenStack:
		return cloud.Credentials{
			OSUsername:           c.Username,
			OSPassword:           c.Password,
			OSTenantName:         c.TenantName,
			OSProjectName:        c.ProjectName,
			OSProjectDomainName:  c.ProjectDomainName,
			OSUserDomainName:     c.UserDomainName,
			OSIdentityAPIVersion: c.IdentityAPIVersion,
		}
	}
	return cloud.Credentials{}
}

// Masked returns a copy safe to serialise in listings.
func (c Credentials) Masked() Credentials {
	if c.SecretKey != "" {
		c.SecretKey = MaskedValue
	}
	if c.Password != "" {
		c.Password = MaskedValue
	}
	return c
}

// MaskedValue replaces secrets in API responses.
const MaskedValue = "********"
