package store

import "github.com/cloudlaunch/cloudlaunch-go/pkg/model"

// DeploymentFilter narrows a deployment listing. Zero values match all.
type DeploymentFilter struct {
	OwnerID   uint
	CloudSlug string
}

// DeploymentsStore records launch requests and their task outcome.
type DeploymentsStore interface {
	ListDeployments(filter DeploymentFilter, page Page) ([]model.ApplicationDeployment, int64, error)
	// GetDeployment returns ErrNotFound unless the deployment belongs to
	// ownerID.
	GetDeployment(ownerID, id uint) (*model.ApplicationDeployment, error)
	CreateDeployment(d *model.ApplicationDeployment) error

	// FindApplicationVersion resolves a version of an application, with the
	// application loaded.
	FindApplicationVersion(appSlug, version string) (*model.ApplicationVersion, error)
	// FindCloudConfig returns the binding of a version to a cloud, with its
	// image loaded.
	FindCloudConfig(versionID uint, cloudSlug string) (*model.ApplicationVersionCloudConfig, error)

	// GetDeploymentForLaunch loads a deployment with everything the launch
	// task needs: version, application and target cloud details.
	GetDeploymentForLaunch(id uint) (*model.ApplicationDeployment, error)
	UpdateDeploymentTask(id uint, status model.TaskStatus, result string) error
}
