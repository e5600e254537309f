package store

import "github.com/cloudlaunch/cloudlaunch-go/pkg/model"

// CredentialsStore manages the cloud credentials owned by a user profile.
// Every lookup is scoped to the profile; another profile's rows are
// reported as ErrNotFound.
type CredentialsStore interface {
	ListCredentials(profileSlug string, kind model.CloudKind) ([]model.Credentials, error)
	GetCredentials(profileSlug string, id uint) (*model.Credentials, error)
	// FindDefaultCredentials returns the profile's default credentials for a
	// cloud, or ErrNotFound.
	FindDefaultCredentials(profileSlug, cloudSlug string) (*model.Credentials, error)
	// CreateCredentials and UpdateCredentials clear any other default for
	// the same profile and cloud when c.Default is set.
	CreateCredentials(c *model.Credentials) error
	UpdateCredentials(c *model.Credentials) error
	DeleteCredentials(profileSlug string, id uint) error
}
