package gorm

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/model"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/store"
)

// Ensure CloudsStore implements store.CloudsStore
var _ store.CloudsStore = (*CloudsStore)(nil)

// CloudsStore implements store.CloudsStore using GORM
type CloudsStore struct {
	db *gorm.DB
}

// NewCloudsStore creates a new CloudsStore
func NewCloudsStore(db *gorm.DB) *CloudsStore {
	return &CloudsStore{db: db}
}

func withCloudDetails(prefix string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Preload(prefix + "AWS").
			Preload(prefix + "AWS.EC2").
			Preload(prefix + "AWS.S3").
			Preload(prefix + "OpenStack")
	}
}

func (s *CloudsStore) ListClouds(page store.Page) ([]model.Cloud, int64, error) {
	var total int64
	if err := s.db.Model(&model.Cloud{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var clouds []model.Cloud
	err := s.db.Scopes(withCloudDetails(""), paginate(page)).Order("slug").Find(&clouds).Error
	if err != nil {
		return nil, 0, err
	}
	return clouds, total, nil
}

func (s *CloudsStore) GetCloud(slug string) (*model.Cloud, error) {
	var c model.Cloud
	if err := s.db.Scopes(withCloudDetails("")).Where("slug = ?", slug).First(&c).Error; err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

func (s *CloudsStore) CreateCloud(c *model.Cloud) error {
	return mapError(s.db.Create(c).Error)
}

// UpdateCloud saves the cloud and whichever detail record it carries.
func (s *CloudsStore) UpdateCloud(c *model.Cloud) error {
	return mapError(s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(c).Error; err != nil {
			return err
		}
		if c.AWS != nil {
			c.AWS.CloudSlug = c.Slug
			if c.AWS.EC2 != nil {
				if err := tx.Save(c.AWS.EC2).Error; err != nil {
					return err
				}
				c.AWS.EC2ID = &c.AWS.EC2.ID
			}
			if c.AWS.S3 != nil {
				if err := tx.Save(c.AWS.S3).Error; err != nil {
					return err
				}
				c.AWS.S3ID = &c.AWS.S3.ID
			}
			if err := tx.Omit(clause.Associations).Save(c.AWS).Error; err != nil {
				return err
			}
		}
		if c.OpenStack != nil {
			c.OpenStack.CloudSlug = c.Slug
			if err := tx.Save(c.OpenStack).Error; err != nil {
				return err
			}
		}
		return nil
	}))
}

// DeleteCloud removes the cloud with its endpoint records.
func (s *CloudsStore) DeleteCloud(slug string) error {
	c, err := s.GetCloud(slug)
	if err != nil {
		return err
	}
	return mapError(s.db.Transaction(func(tx *gorm.DB) error {
		if c.AWS != nil {
			if err := tx.Where("cloud_slug = ?", slug).Delete(&model.AWS{}).Error; err != nil {
				return err
			}
			if c.AWS.EC2ID != nil {
				if err := tx.Delete(&model.EC2{}, *c.AWS.EC2ID).Error; err != nil {
					return err
				}
			}
			if c.AWS.S3ID != nil {
				if err := tx.Delete(&model.S3{}, *c.AWS.S3ID).Error; err != nil {
					return err
				}
			}
		}
		if err := tx.Where("cloud_slug = ?", slug).Delete(&model.OpenStack{}).Error; err != nil {
			return err
		}
		return requireAffected(tx.Where("slug = ?", slug).Delete(&model.Cloud{}))
	}))
}
