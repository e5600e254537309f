package gorm

import (
	"gorm.io/gorm"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/model"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/store"
)

// Ensure DeploymentsStore implements store.DeploymentsStore
var _ store.DeploymentsStore = (*DeploymentsStore)(nil)

// DeploymentsStore implements store.DeploymentsStore using GORM
type DeploymentsStore struct {
	db *gorm.DB
}

// NewDeploymentsStore creates a new DeploymentsStore
func NewDeploymentsStore(db *gorm.DB) *DeploymentsStore {
	return &DeploymentsStore{db: db}
}

func deploymentFilter(f store.DeploymentFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.OwnerID != 0 {
			db = db.Where("owner_id = ?", f.OwnerID)
		}
		if f.CloudSlug != "" {
			db = db.Where("target_cloud_slug = ?", f.CloudSlug)
		}
		return db
	}
}

// ListDeployments returns deployments newest first.
func (s *DeploymentsStore) ListDeployments(filter store.DeploymentFilter, page store.Page) ([]model.ApplicationDeployment, int64, error) {
	var total int64
	if err := s.db.Model(&model.ApplicationDeployment{}).Scopes(deploymentFilter(filter)).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var deployments []model.ApplicationDeployment
	err := s.db.Scopes(deploymentFilter(filter), paginate(page)).Order("added DESC, id DESC").Find(&deployments).Error
	if err != nil {
		return nil, 0, err
	}
	return deployments, total, nil
}

func (s *DeploymentsStore) GetDeployment(ownerID, id uint) (*model.ApplicationDeployment, error) {
	var d model.ApplicationDeployment
	if err := s.db.Where("id = ? AND owner_id = ?", id, ownerID).First(&d).Error; err != nil {
		return nil, mapError(err)
	}
	return &d, nil
}

func (s *DeploymentsStore) CreateDeployment(d *model.ApplicationDeployment) error {
	return mapError(s.db.Omit("ApplicationVersion", "TargetCloud").Create(d).Error)
}

func (s *DeploymentsStore) FindApplicationVersion(appSlug, version string) (*model.ApplicationVersion, error) {
	var v model.ApplicationVersion
	err := s.db.Preload("Application").
		Where("application_slug = ? AND version = ?", appSlug, version).
		First(&v).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &v, nil
}

func (s *DeploymentsStore) FindCloudConfig(versionID uint, cloudSlug string) (*model.ApplicationVersionCloudConfig, error) {
	var cc model.ApplicationVersionCloudConfig
	err := s.db.Preload("Image").
		Where("application_version_id = ? AND cloud_slug = ?", versionID, cloudSlug).
		First(&cc).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &cc, nil
}

func (s *DeploymentsStore) GetDeploymentForLaunch(id uint) (*model.ApplicationDeployment, error) {
	var d model.ApplicationDeployment
	err := s.db.
		Preload("ApplicationVersion").
		Preload("ApplicationVersion.Application").
		Preload("TargetCloud").
		Scopes(withCloudDetails("TargetCloud.")).
		Where("id = ?", id).
		First(&d).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &d, nil
}

// UpdateDeploymentTask records the latest task state. An empty result
// leaves the stored one untouched.
func (s *DeploymentsStore) UpdateDeploymentTask(id uint, status model.TaskStatus, result string) error {
	updates := map[string]interface{}{"task_status": status}
	if result != "" {
		updates["task_result"] = result
	}
	return requireAffected(s.db.Model(&model.ApplicationDeployment{}).Where("id = ?", id).Updates(updates))
}
