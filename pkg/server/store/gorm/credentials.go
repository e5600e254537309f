package gorm

import (
	"gorm.io/gorm"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/model"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/store"
)

// Ensure CredentialsStore implements store.CredentialsStore
var _ store.CredentialsStore = (*CredentialsStore)(nil)

// CredentialsStore implements store.CredentialsStore using GORM. Secret
// fields are sealed and opened by model hooks, so the session must carry a
// cipher.
type CredentialsStore struct {
	db *gorm.DB
}

// NewCredentialsStore creates a new CredentialsStore
func NewCredentialsStore(db *gorm.DB) *CredentialsStore {
	return &CredentialsStore{db: db}
}

func (s *CredentialsStore) ListCredentials(profileSlug string, kind model.CloudKind) ([]model.Credentials, error) {
	var creds []model.Credentials
	q := s.db.Where("user_profile_slug = ?", profileSlug)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if err := q.Order("id").Find(&creds).Error; err != nil {
		return nil, err
	}
	return creds, nil
}

func (s *CredentialsStore) GetCredentials(profileSlug string, id uint) (*model.Credentials, error) {
	var c model.Credentials
	if err := s.db.Where("id = ? AND user_profile_slug = ?", id, profileSlug).First(&c).Error; err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

func (s *CredentialsStore) FindDefaultCredentials(profileSlug, cloudSlug string) (*model.Credentials, error) {
	var c model.Credentials
	err := s.db.
		Where("user_profile_slug = ? AND cloud_slug = ? AND is_default = ?", profileSlug, cloudSlug, true).
		First(&c).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

func (s *CredentialsStore) CreateCredentials(c *model.Credentials) error {
	return mapError(s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		return clearOtherDefaults(tx, c)
	}))
}

func (s *CredentialsStore) UpdateCredentials(c *model.Credentials) error {
	return mapError(s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(c).Error; err != nil {
			return err
		}
		return clearOtherDefaults(tx, c)
	}))
}

func (s *CredentialsStore) DeleteCredentials(profileSlug string, id uint) error {
	return requireAffected(s.db.Where("id = ? AND user_profile_slug = ?", id, profileSlug).Delete(&model.Credentials{}))
}

// clearOtherDefaults keeps at most one default per (profile, cloud).
// UpdateColumn skips the model hooks, which would otherwise try to validate
// and seal the empty model value.
func clearOtherDefaults(tx *gorm.DB, c *model.Credentials) error {
	if !c.Default {
		return nil
	}
	return tx.Model(&model.Credentials{}).
		Where("user_profile_slug = ? AND cloud_slug = ? AND id <> ?", c.UserProfileSlug, c.CloudSlug, c.ID).
		UpdateColumn("is_default", false).Error
}
