package store

import "github.com/cloudlaunch/cloudlaunch-go/pkg/model"

// CloudsStore manages target clouds and their connection details.
type CloudsStore interface {
	ListClouds(page Page) ([]model.Cloud, int64, error)
	// GetCloud returns ErrNotFound if the slug is unknown.
	GetCloud(slug string) (*model.Cloud, error)
	CreateCloud(c *model.Cloud) error
	UpdateCloud(c *model.Cloud) error
	DeleteCloud(slug string) error
}
