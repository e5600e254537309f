package store

import "github.com/cloudlaunch/cloudlaunch-go/pkg/model"

// PublicServicesStore manages the public services catalog and its sponsors
// and locations.
type PublicServicesStore interface {
	ListPublicServices(page Page) ([]model.PublicService, int64, error)
	GetPublicService(slug string) (*model.PublicService, error)
	CreatePublicService(p *model.PublicService) error
	UpdatePublicService(p *model.PublicService) error
	DeletePublicService(slug string) error

	ListSponsors(page Page) ([]model.Sponsor, int64, error)
	GetSponsor(id uint) (*model.Sponsor, error)
	CreateSponsor(s *model.Sponsor) error

	ListLocations(page Page) ([]model.Location, int64, error)
	GetLocation(id uint) (*model.Location, error)
	CreateLocation(l *model.Location) error
	// FindOrCreateLocation reuses a location with the same coordinates and
	// fills in l.ID.
	FindOrCreateLocation(l *model.Location) error
}
