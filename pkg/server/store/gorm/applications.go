package gorm

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/model"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/store"
)

// Ensure ApplicationsStore implements store.ApplicationsStore
var _ store.ApplicationsStore = (*ApplicationsStore)(nil)

// ApplicationsStore implements store.ApplicationsStore using GORM
type ApplicationsStore struct {
	db *gorm.DB
}

// NewApplicationsStore creates a new ApplicationsStore
func NewApplicationsStore(db *gorm.DB) *ApplicationsStore {
	return &ApplicationsStore{db: db}
}

func withVersions(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Versions", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Versions.CloudConfig", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Versions.CloudConfig.Image")
}

// ListApplications returns a page of applications ordered by slug.
func (s *ApplicationsStore) ListApplications(page store.Page) ([]model.Application, int64, error) {
	var total int64
	if err := s.db.Model(&model.Application{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var apps []model.Application
	err := s.db.Scopes(withVersions, paginate(page)).Order("slug").Find(&apps).Error
	if err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

// GetApplication retrieves an application by slug.
func (s *ApplicationsStore) GetApplication(slug string) (*model.Application, error) {
	var app model.Application
	if err := s.db.Scopes(withVersions).Where("slug = ?", slug).First(&app).Error; err != nil {
		return nil, mapError(err)
	}
	return &app, nil
}

// CreateApplication inserts the application and its nested versions, cloud
// configs and images.
func (s *ApplicationsStore) CreateApplication(app *model.Application) error {
	return mapError(s.db.Create(app).Error)
}

// UpdateApplication saves the application and upserts its versions by
// version string. A version that carries cloud configs has them replaced.
func (s *ApplicationsStore) UpdateApplication(app *model.Application) error {
	return mapError(s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(app).Error; err != nil {
			return err
		}
		for i := range app.Versions {
			if err := saveVersion(tx, app.Slug, &app.Versions[i]); err != nil {
				return err
			}
		}
		return nil
	}))
}

func saveVersion(tx *gorm.DB, appSlug string, v *model.ApplicationVersion) error {
	v.ApplicationSlug = appSlug
	if v.ID == 0 {
		var existing model.ApplicationVersion
		err := tx.Where("application_slug = ? AND version = ?", appSlug, v.Version).First(&existing).Error
		switch {
		case err == nil:
			v.ID = existing.ID
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
	}
	if err := tx.Omit(clause.Associations).Save(v).Error; err != nil {
		return err
	}
	if v.CloudConfig == nil {
		return nil
	}
	if err := tx.Where("application_version_id = ?", v.ID).Delete(&model.ApplicationVersionCloudConfig{}).Error; err != nil {
		return err
	}
	for i := range v.CloudConfig {
		cc := &v.CloudConfig[i]
		cc.ID = 0
		cc.ApplicationVersionID = v.ID
		if err := tx.Create(cc).Error; err != nil {
			return err
		}
	}
	return nil
}

// DeleteApplication removes an application. Its versions go with it through
// the schema's cascading foreign keys.
func (s *ApplicationsStore) DeleteApplication(slug string) error {
	return requireAffected(s.db.Where("slug = ?", slug).Delete(&model.Application{}))
}
