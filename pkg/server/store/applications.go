package store

import "github.com/cloudlaunch/cloudlaunch-go/pkg/model"

// ApplicationsStore manages the application catalog. Applications are read
// with their versions, cloud configs and images.
type ApplicationsStore interface {
	ListApplications(page Page) ([]model.Application, int64, error)
	// GetApplication returns ErrNotFound if the slug is unknown.
	GetApplication(slug string) (*model.Application, error)
	// CreateApplication inserts the application with its nested versions.
	CreateApplication(app *model.Application) error
	// UpdateApplication saves the application fields and upserts any
	// versions it carries. Versions left out are kept.
	UpdateApplication(app *model.Application) error
	DeleteApplication(slug string) error
}
